package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tablecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tablecrawl",
		Short: "Scrape statistics tables from web pages",
		Long: `tablecrawl scrapes tabular statistics from public web pages.

Sites are defined in YAML. A site either starts from an index page whose
links lead to one detail table per entry, or from a single page holding the
table. Records from detail tables carry the entry name they were reached from.

Built-in sites: worldometers, national_debt. Run 'tablecrawl init' to write a
configuration file with your own sites.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
