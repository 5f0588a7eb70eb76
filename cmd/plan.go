package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/sidekick/renderer"
	"github.com/google/subcommands"
)

// planCmd displays the mutations a sync would apply.
type planCmd struct {
	dir     string
	account string
	all     bool
	pretty  bool
}

func (*planCmd) Name() string     { return "plan" }
func (*planCmd) Synopsis() string { return "display the changes a sync would make to Ghostfolio" }
func (*planCmd) Usage() string {
	return `gfs plan [-dir <path>] [-account <name>] [-all] [-pretty]

  Converts the files of every account directory and compares the activities
  with the ones stored in Ghostfolio. Nothing is written.
`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", "", "import directory, defaults to FILEIMPORTER_PATH")
	f.StringVar(&c.account, "account", "", "only plan this account")
	f.BoolVar(&c.all, "all", false, "also list the activities already in Ghostfolio")
	f.BoolVar(&c.pretty, "pretty", false, "render markdown for the terminal")
}

func (c *planCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
		_, mutations, err := a.reconciler.PlanAccount(ctx, account)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error planning account %s: %v\n", d.Name, err)
			status = subcommands.ExitFailure
			continue
		}
		balance := account.Balance.Current(ctx, a.exchange)
		printMarkdown(renderer.RenderPlan(renderer.NewPlan(account.Name, balance, mutations, c.all)), c.pretty)
	}
	return status
}
