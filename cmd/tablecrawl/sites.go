package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/tablecrawl/internal/config"
	"github.com/nao1215/tablecrawl/internal/report"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the sites that can be crawled",
		Long: `Sites lists the built-in sites and those defined in the configuration
file. A "follow" site reads entries from its start page and fetches one
detail page per entry; a "flat" site reads its table from the start page.`,
		Args: cobra.NoArgs,
		RunE: runSitesCmd,
	}

	cmd.Flags().StringP("config", "c", "", "Path to site configuration file (default: .tablecrawl)")

	return cmd
}

func runSitesCmd(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	sites, path, err := config.LoadSites(configPath)
	if err != nil {
		return err
	}

	infos := make([]report.SiteInfo, 0, len(sites.Sites))
	for _, name := range sites.Names() {
		s := sites.Sites[name]
		infos = append(infos, report.SiteInfo{
			Name:        name,
			Follows:     s.Rules.Follows(),
			StartURL:    s.StartURL,
			Description: s.Description,
		})
	}

	out := cmd.OutOrStdout()
	report.WriteSites(out, infos)
	if path == "" {
		fmt.Fprintln(out, "Config: built-in sites only")
	} else {
		fmt.Fprintf(out, "Config: %s\n", path)
	}
	return nil
}
