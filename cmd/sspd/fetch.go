package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/gmail"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/posts"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ui"
)

var (
	fetchQuery     string
	fetchLinksFile string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect post links from Gmail notification emails",
	Long: `Search the Gmail inbox for Social Schools notification emails and
extract the post links they reference. The links are written to a
corpus file that 'sspd run' later walks.

The first invocation opens an OAuth consent flow in your browser; the
resulting token is cached for later runs. You need a Google Cloud
OAuth client credentials file (credentials.json) with the Gmail
readonly scope.`,
	Example: `  # Collect links using the configured search query
  sspd fetch

  # Use a custom search query and corpus file
  sspd fetch --query 'from:socialschools newer_than:1y' --links vacation.json`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchQuery, "query", "", "Gmail search query (overrides config)")
	fetchCmd.Flags().StringVar(&fetchLinksFile, "links", "", "corpus file to write (default from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{"log-level": logLevel}
	if fetchQuery != "" {
		flags["query"] = fetchQuery
	}
	if fetchLinksFile != "" {
		flags["links"] = fetchLinksFile
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("failed to initialize logging: %v", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	ctx := context.Background()
	fetcher, err := gmail.NewFetcher(ctx, cfg.Gmail, log)
	if err != nil {
		return fmt.Errorf("gmail setup failed: %w", err)
	}

	descriptors, err := fetcher.FetchCandidateLinks(ctx)
	if err != nil {
		return fmt.Errorf("inbox search failed: %w", err)
	}
	if len(descriptors) == 0 {
		ui.PrintInfo("No matches", "the search query returned no notification emails")
		return nil
	}

	if err := posts.SaveCorpus(cfg.Output.LinksFile, descriptors); err != nil {
		return fmt.Errorf("could not write corpus: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Wrote %d post links to %s", len(descriptors), cfg.Output.LinksFile))
	return nil
}
