package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/sidekick/renderer"
	"github.com/google/subcommands"
)

// importCmd converts account files without touching the remote ledger.
type importCmd struct {
	dir     string
	account string
	pretty  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "convert account files and display the activities (dry-run)" }
func (*importCmd) Usage() string {
	return `gfs import [-dir <path>] [-account <name>] [-pretty]

  Converts the files of every account directory and displays the activities
  and balance found. Nothing is written to Ghostfolio.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "import directory, defaults to FILEIMPORTER_PATH")
	f.StringVar(&c.account, "account", "", "only convert this account")
	f.BoolVar(&c.pretty, "pretty", false, "render markdown for the terminal")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	a.task.CreateAccounts = false

	dirs, err := a.accountDirs(c.dir, c.account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning accounts: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, d := range dirs {
		account, err := a.task.Convert(ctx, d.Name, d.Files)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error converting account %s: %v\n", d.Name, err)
			status = subcommands.ExitFailure
			continue
		}
		balance := account.Balance.Current(ctx, a.exchange)
		printMarkdown(renderer.RenderActivities(renderer.NewActivities(account, balance)), c.pretty)
	}
	return status
}
