package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type maintainCmd struct {
	gather bool
}

func (*maintainCmd) Name() string     { return "maintain" }
func (*maintainCmd) Synopsis() string { return "tidy Ghostfolio market data" }
func (*maintainCmd) Usage() string {
	return `gfs maintain [-gather]

  Deletes unused symbols, creates the configured manual symbols and their
  prices, and sets the TrackInsight mappings.
`
}

func (c *maintainCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.gather, "gather", false, "ask Ghostfolio to gather all market data afterwards")
}

func (c *maintainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := a.maintainer.Run(ctx, c.gather); err != nil {
		fmt.Fprintf(os.Stderr, "Error maintaining market data: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
