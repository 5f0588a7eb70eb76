package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/sidekick"
	"github.com/google/subcommands"
)

type rateCmd struct {
	date string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "display the exchange rate between two currencies" }
func (*rateCmd) Usage() string {
	return `gfs rate [-d <date>] <from> <to>

  Displays the value of one unit of <from> in <to>, as used to convert
  activities. Minor units (GBp) and intermediate currencies are supported.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", sidekick.Today().String(), "date of the rate")
}

func (c *rateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	from, err := sidekick.ParseCurrency(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	to, err := sidekick.ParseCurrency(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	day, err := sidekick.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("1 %s = %s %s on %s\n", from, a.exchange.Rate(ctx, from, to, day), to, day)
	return subcommands.ExitSuccess
}
