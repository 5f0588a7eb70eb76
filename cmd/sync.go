package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/sidekick/renderer"
	"github.com/google/subcommands"
)

// syncCmd imports every account into Ghostfolio.
type syncCmd struct {
	dir      string
	maintain bool
	pretty   bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "synchronize Ghostfolio with the account files" }
func (*syncCmd) Usage() string {
	return `gfs sync [-dir <path>] [-maintain] [-pretty]

  Converts the files of every account directory, then creates, updates and
  deletes Ghostfolio activities until they match. The account balances are
  updated too.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "import directory, defaults to FILEIMPORTER_PATH")
	f.BoolVar(&c.maintain, "maintain", true, "run market data maintenance after the import")
	f.BoolVar(&c.pretty, "pretty", false, "render markdown for the terminal")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	dir := c.dir
	if dir == "" {
		dir = a.cfg.FileImporterPath
	}

	status := subcommands.ExitSuccess
	reports, err := a.task.Run(ctx, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error synchronizing: %v\n", err)
		status = subcommands.ExitFailure
	}
	if len(reports) > 0 {
		printMarkdown(renderer.RenderSync(renderer.NewSync(reports)), c.pretty)
	}

	if c.maintain {
		if err := a.maintainer.Run(ctx, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error maintaining market data: %v\n", err)
			status = subcommands.ExitFailure
		}
	}
	return status
}
