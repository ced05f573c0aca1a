package keeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/egaotan/honorary-quote-fee/config"
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/env"
	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/robfig/cron/v3"
)

var ErrCursorOutOfRange = errors.New("keeper: stored cursor beyond investor set")

// DayResult summarizes one RunDay call.
type DayResult struct {
	Skipped   bool `json:"skipped"`
	Resumed   bool `json:"resumed"`
	Pages     int  `json:"pages"`
	Investors int  `json:"investors"`
	Closed    bool `json:"closed"`
}

// Keeper drives the distribution crank page by page.
type Keeper struct {
	log      *slog.Logger
	env      *env.Env
	schedule string
	pageSize int
	retries  int

	mu   sync.Mutex
	cron *cron.Cron
	wg   sync.WaitGroup
}

func NewKeeper(e *env.Env, cfg config.Keeper, log *slog.Logger) *Keeper {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	return &Keeper{
		log:      log,
		env:      e,
		schedule: cfg.Schedule,
		pageSize: pageSize,
		retries:  cfg.Retries,
	}
}

// RunDay sends every remaining page of the current day. A day already in
// progress is resumed at its stored cursor. When the 24h window has not
// elapsed yet nothing is sent and the result is Skipped.
func (k *Keeper) RunDay(ctx context.Context) (*DayResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	investors, err := k.env.Investors()
	if err != nil {
		return nil, err
	}
	progress, err := k.env.Progress()
	if err != nil {
		return nil, err
	}
	total := len(investors)
	result := &DayResult{}
	cursor := 0
	if progress.DayOpen {
		cursor = int(progress.PageCursor)
		result.Resumed = true
		if cursor > total {
			return nil, fmt.Errorf("%w: cursor %d, investors %d", ErrCursorOutOfRange, cursor, total)
		}
		k.log.Info("resume day", "day_start", progress.DayStartTs, "cursor", cursor)
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := cursor + k.pageSize
		if end > total {
			end = total
		}
		params := distributor.CrankQuoteFeeParams{
			ExpectedPageCursor: uint32(cursor),
			MaxPageCursor:      uint32(total),
			IsLastPage:         end == total,
		}
		err := k.sendPage(ctx, params, investors[cursor:end])
		if errors.Is(err, program.ErrDayNotReady) {
			k.log.Debug("day not ready")
			result.Skipped = true
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result.Pages++
		result.Investors += end - cursor
		cursor = end
		if params.IsLastPage {
			result.Closed = true
			break
		}
	}
	k.log.Info("day closed", "pages", result.Pages, "investors", result.Investors)
	return result, nil
}

// sendPage retries a failed page; a failed page leaves the cursor untouched
// so resubmitting it is safe.
func (k *Keeper) sendPage(ctx context.Context, params distributor.CrankQuoteFeeParams, page []distributor.InvestorAccounts) error {
	var err error
	for attempt := 0; attempt <= k.retries; attempt++ {
		if attempt > 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			k.log.Warn("retry page", "cursor", params.ExpectedPageCursor, "attempt", attempt, "error", err)
		}
		_, err = k.env.Crank(params, page)
		if err == nil {
			k.log.Debug("page sent", "cursor", params.ExpectedPageCursor, "size", len(page), "last", params.IsLastPage)
			return nil
		}
		if errors.Is(err, program.ErrDayNotReady) || errors.Is(err, program.ErrUnexpectedPageCursor) {
			return err
		}
	}
	return fmt.Errorf("page at cursor %d failed after %d attempts: %w", params.ExpectedPageCursor, k.retries+1, err)
}

// Start schedules RunDay on the cron spec (seconds field enabled) until ctx
// is done.
func (k *Keeper) Start(ctx context.Context) error {
	k.cron = cron.New(cron.WithSeconds())
	_, err := k.cron.AddFunc(k.schedule, func() {
		result, err := k.RunDay(ctx)
		if err != nil {
			k.log.Error("run day", "error", err)
			return
		}
		if result.Skipped {
			return
		}
		k.log.Info("scheduled run", "pages", result.Pages, "resumed", result.Resumed)
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", k.schedule, err)
	}
	k.cron.Start()
	k.log.Info("keeper started", "schedule", k.schedule, "page_size", k.pageSize)
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		<-ctx.Done()
		<-k.cron.Stop().Done()
	}()
	return nil
}

// Stop waits for the scheduler to wind down after the Start context ends.
func (k *Keeper) Stop() {
	k.wg.Wait()
	k.log.Info("keeper stopped")
}
