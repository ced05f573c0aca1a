package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/egaotan/honorary-quote-fee/chain"
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/shopspring/decimal"
)

// Notifier reports closed distribution days to DingTalk from a single
// goroutine. Messages queued before the context ends are still sent.
type Notifier struct {
	ctx      context.Context
	log      *slog.Logger
	sdk      *DingSdk
	symbol   string
	decimals uint8
	messages chan string
	wg       sync.WaitGroup
}

const drainTimeout = 10 * time.Second

func NewNotifier(ctx context.Context, sdk *DingSdk, symbol string, decimals uint8, log *slog.Logger) *Notifier {
	return &Notifier{
		ctx:      ctx,
		log:      log,
		sdk:      sdk,
		symbol:   symbol,
		decimals: decimals,
		messages: make(chan string, 16),
	}
}

func (n *Notifier) Start() {
	n.wg.Add(1)
	go n.send()
}

// Stop waits until the messages queued before the context ended are sent.
func (n *Notifier) Stop() {
	n.wg.Wait()
}

func (n *Notifier) send() {
	defer n.wg.Done()
	for {
		select {
		case msg := <-n.messages:
			n.notify(n.ctx, msg)
		case <-n.ctx.Done():
			ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			defer cancel()
			for {
				select {
				case msg := <-n.messages:
					n.notify(ctx, msg)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) notify(ctx context.Context, msg string) {
	if _, err := n.sdk.Notify(ctx, TextNotify(msg)); err != nil {
		n.log.Error("ding notify", "error", err)
	}
}

func (n *Notifier) OnEvent(event chain.Event) {
	closed, ok := event.Payload.(*distributor.CreatorPayoutDayClosed)
	if !ok {
		return
	}
	if n.ctx.Err() != nil {
		n.log.Warn("notifier stopped, message dropped", "policy", closed.Policy)
		return
	}
	select {
	case n.messages <- n.DayClosedMessage(closed):
	case <-n.ctx.Done():
		n.log.Warn("notifier stopped, message dropped", "policy", closed.Policy)
	}
}

func (n *Notifier) DayClosedMessage(ev *distributor.CreatorPayoutDayClosed) string {
	day := time.Unix(ev.DayStartTs, 0).UTC().Format("2006-01-02 15:04:05")
	share := decimal.NewFromInt(int64(ev.ShareBps)).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("quote fee day closed: \npolicy: %s;\nday start: %s;\nclaimed: %s %s;\ninvestors: %s %s (%s%%);\ncreator: %s %s;",
		ev.Policy, day,
		utils.UiAmount(ev.ClaimedQuote, n.decimals).StringFixed(int32(n.decimals)), n.symbol,
		utils.UiAmount(ev.InvestorQuotePaid, n.decimals).StringFixed(int32(n.decimals)), n.symbol, share.StringFixed(2),
		utils.UiAmount(ev.CreatorQuotePaid, n.decimals).StringFixed(int32(n.decimals)), n.symbol)
}
