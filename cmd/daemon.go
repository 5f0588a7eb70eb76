package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/sidekick"
	"github.com/etnz/sidekick/scheduler"
	"github.com/google/subcommands"
)

type daemonCmd struct {
	sync   string
	gather string
}

func (*daemonCmd) Name() string     { return "daemon" }
func (*daemonCmd) Synopsis() string { return "synchronize and maintain on a schedule" }
func (*daemonCmd) Usage() string {
	return `gfs daemon [-sync <schedule>] [-gather <schedule>]

  Runs a synchronization followed by maintenance immediately, then on the sync
  schedule. A full market data gathering runs on the gather schedule. Stops on
  SIGINT or SIGTERM.
`
}

func (c *daemonCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sync, "sync", "@hourly", "cron schedule of the synchronization")
	f.StringVar(&c.gather, "gather", "0 3 * * *", "cron schedule of the market data gathering")
}

func (c *daemonCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncJob := scheduler.Func{JobName: "sync", Fn: func(ctx context.Context) error {
		reports, err := a.task.Run(ctx, a.cfg.FileImporterPath)
		for _, r := range reports {
			a.log.Info().
				Str("account", r.Account).
				Bool("balance_updated", r.BalanceUpdated).
				Int("new", r.Counts[sidekick.New]).
				Int("updated", r.Counts[sidekick.Updated]).
				Int("removed", r.Counts[sidekick.Removed]).
				Int("failures", len(r.Failures)).
				Msg("account synchronized")
		}
		if err != nil {
			return err
		}
		return a.maintainer.Run(ctx, false)
	}}
	gatherJob := scheduler.Func{JobName: "gather", Fn: func(ctx context.Context) error {
		return a.maintainer.Run(ctx, true)
	}}

	sched := scheduler.New(ctx, a.log)
	if err := sched.AddJob(c.sync, syncJob); err != nil {
		fmt.Fprintf(os.Stderr, "Error scheduling sync: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := sched.AddJob(c.gather, gatherJob); err != nil {
		fmt.Fprintf(os.Stderr, "Error scheduling gather: %v\n", err)
		return subcommands.ExitUsageError
	}

	_ = sched.RunNow(syncJob)
	sched.Start()
	<-ctx.Done()
	sched.Stop()
	a.log.Info().Msg("daemon stopped")
	return subcommands.ExitSuccess
}
