package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/egaotan/honorary-quote-fee/backend"
	"github.com/egaotan/honorary-quote-fee/config"
	"github.com/egaotan/honorary-quote-fee/distributor"
	"github.com/egaotan/honorary-quote-fee/env"
	"github.com/egaotan/honorary-quote-fee/keeper"
	"github.com/egaotan/honorary-quote-fee/notify"
	"github.com/egaotan/honorary-quote-fee/server"
	"github.com/egaotan/honorary-quote-fee/store"
	"github.com/egaotan/honorary-quote-fee/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	flag "github.com/spf13/pflag"
)

const usage = `usage: quotefee [flags] <command>

commands:
  seed                 write a local quote-only pool and position, update the config
  add-stream           add a locked investor stream (--deposit, --start, --end)
  accrue               credit fees to the position (--quote, --base)
  init-policy          create the policy, progress and treasuries
  configure-position   record the honorary position on the policy
  crank                run every remaining page of the current day
  status               print policy and progress
  clone                copy the configured accounts from rpc into the ledger
  serve                run the scheduled keeper and the http api

flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "quotefee.json", "path of the json config file")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	depositFlag := flag.Uint64("deposit", 0, "add-stream: net deposited amount")
	startFlag := flag.Int64("start", 0, "add-stream: unlock start (unix seconds, default now)")
	endFlag := flag.Int64("end", 0, "add-stream: unlock end (unix seconds, default start + 1 year)")
	quoteFlag := flag.Uint64("quote", 0, "accrue: quote fees")
	baseFlag := flag.Uint64("base", 0, "accrue: base fees")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected one command")
	}
	command := flag.Arg(0)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	logDir := cfg.LogDir()
	if logDir != "" {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			return err
		}
	}
	log := utils.NewLog(logDir, config.ChainLog, *verboseFlag)

	clock := clockwork.NewRealClock()
	e, err := env.NewEnv(cfg, clock, log)
	if err != nil {
		return err
	}
	defer e.Close()

	switch command {
	case "seed":
		if err := e.SeedPool(); err != nil {
			return err
		}
		return cfg.Save(*configFlag)
	case "add-stream":
		start := *startFlag
		if start == 0 {
			start = clock.Now().Unix()
		}
		end := *endFlag
		if end == 0 {
			end = start + 365*distributor.DaySeconds
		}
		key, err := e.AddStream(*depositFlag, start, end)
		if err != nil {
			return err
		}
		fmt.Println(key)
		return cfg.Save(*configFlag)
	case "accrue":
		return e.AccrueFees(*quoteFlag, *baseFlag)
	case "clone":
		if cfg.Rpc == "" {
			return fmt.Errorf("rpc is required for clone")
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		b := backend.NewBackend(ctx, cfg.Rpc, utils.NewLog(logDir, config.BackendLog, *verboseFlag))
		_, err := b.Clone(e.Ledger(), cloneKeys(cfg))
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	switch command {
	case "init-policy":
		receipt, err := e.InitializePolicy()
		if err != nil {
			return err
		}
		log.Info("policy initialized", "policy", e.PolicyKey(), "slot", receipt.Slot)
		return nil
	case "configure-position":
		receipt, err := e.ConfigurePosition()
		if err != nil {
			return err
		}
		log.Info("position configured", "honorary", e.HonoraryKey(), "slot", receipt.Slot)
		return nil
	case "crank":
		k := keeper.NewKeeper(e, cfg.Keeper, utils.NewLog(logDir, config.KeeperLog, *verboseFlag))
		result, err := k.RunDay(context.Background())
		if err != nil {
			return err
		}
		return printJson(result)
	case "status":
		return status(e)
	case "serve":
		return serve(cfg, e, logDir, *verboseFlag)
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", command)
}

func serve(cfg *config.Config, e *env.Env, logDir string, verbose bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	svc := newServices(cancel)
	defer svc.close()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	defer signal.Stop(quit)
	go shutdown(ctx, cancel, quit)

	if cfg.DBUrl != "" {
		dao, err := store.NewDao(cfg.DBUrl, cfg.DBScheme, cfg.DBUser, cfg.DBPasswd)
		if err != nil {
			return err
		}
		s := store.NewStore(ctx, dao, utils.NewLog(logDir, config.StoreLog, verbose))
		e.Chain().Subscribe(s)
		s.Start()
		svc.add(s.Stop)
	}
	if cfg.DingUrl != "" {
		decimals, err := e.MintDecimals(cfg.Accounts.QuoteMint)
		if err != nil {
			return err
		}
		n := notify.NewNotifier(ctx, notify.NewDingSdk(cfg.DingUrl), cfg.QuoteSymbol, decimals, utils.NewLog(logDir, config.NotifyLog, verbose))
		e.Chain().Subscribe(n)
		n.Start()
		svc.add(n.Stop)
	}

	k := keeper.NewKeeper(e, cfg.Keeper, utils.NewLog(logDir, config.KeeperLog, verbose))
	if err := k.Start(ctx); err != nil {
		return err
	}
	svc.add(k.Stop)
	srv := server.NewServer(ctx, e, k, cfg.Listen, utils.NewLog(logDir, config.ServerLog, verbose))
	srv.Start()
	svc.add(srv.Stop)

	<-ctx.Done()
	return nil
}

func shutdown(ctx context.Context, cancel context.CancelFunc, quit <-chan os.Signal) {
	select {
	case osCall := <-quit:
		fmt.Printf("System call: %v, quotefee is shutting down......\n", osCall)
		cancel()
	case <-ctx.Done():
	}
}

func status(e *env.Env) error {
	policy, err := e.Policy()
	if err != nil {
		return err
	}
	progress, err := e.Progress()
	if err != nil {
		return err
	}
	treasury := uint64(0)
	if policy.Ready() {
		if treasury, err = e.Balance(policy.QuoteTreasury); err != nil {
			return err
		}
	}
	return printJson(map[string]interface{}{
		"policy":   e.PolicyKey(),
		"ready":    policy.Ready(),
		"progress": progress,
		"treasury": treasury,
	})
}

func cloneKeys(cfg *config.Config) []solana.PublicKey {
	a := cfg.Accounts
	keys := []solana.PublicKey{
		a.Pool, a.QuoteMint, a.BaseMint, a.QuoteVault, a.BaseVault, a.CreatorQuoteAta,
		a.Position, a.PositionNftMint, a.PositionNftAccount,
	}
	keys = append(keys, a.Streams...)
	out := make([]solana.PublicKey, 0, len(keys))
	for _, key := range keys {
		if !key.IsZero() {
			out = append(out, key)
		}
	}
	return out
}

func printJson(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
