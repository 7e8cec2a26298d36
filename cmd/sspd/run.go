package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/auth"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/browser"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/config"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/logger"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/posts"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/scraper"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ui"
)

var (
	runLinksFile  string
	runOutputDir  string
	runDebugDir   string
	runConcurrent int
	runEmail      string
	runFromFeed   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk every post in the corpus and download its photos",
	Long: `Open a browser session, wait for you to log in to Social Schools,
then walk every post in the link corpus: open its photo lightbox,
enumerate the carousel and download each media item with the post's
date stamped on it.

Output is one directory per post (date, message id, subject) with one
file per photo or video. The browser stays open after the run until
you press Enter, so you can inspect pages or handle login prompts.`,
	Example: `  # Walk the corpus collected by 'sspd fetch'
  sspd run

  # Use a different corpus and output directory
  sspd run --links vacation.json --output ~/Pictures/school

  # No corpus file? Collect post links from the feed page instead
  sspd run --from-feed`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runLinksFile, "links", "", "corpus file to walk (default from config)")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "base output directory")
	runCmd.Flags().StringVar(&runDebugDir, "debug-dir", "", "directory for failure screenshots")
	runCmd.Flags().IntVar(&runConcurrent, "concurrent", 0, "concurrent downloads per post")
	runCmd.Flags().StringVarP(&runEmail, "email", "e", "", "account email for login form prefill")
	runCmd.Flags().BoolVar(&runFromFeed, "from-feed", false, "scrape post links from the feed page instead of a corpus file")
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"log-level": logLevel,
		"headless":  headless,
	}
	if runLinksFile != "" {
		flags["links"] = runLinksFile
	}
	if runOutputDir != "" {
		flags["output"] = runOutputDir
	}
	if runDebugDir != "" {
		flags["debug-dir"] = runDebugDir
	}
	if runConcurrent > 0 {
		flags["concurrent"] = runConcurrent
	}
	if runEmail != "" {
		flags["email"] = runEmail
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
	log.WithField("version", version).Info("sspd starting")

	// Stored credentials only prefill the login form; missing
	// credentials just mean more typing for the human.
	account := lookupAccount(cfg, log)

	session, err := browser.NewSession(&cfg.Browser, log)
	if err != nil {
		return fmt.Errorf("could not start browser: %w", err)
	}
	// The session stays open until the human confirms, so manual
	// inspection and residual login prompts can be finished first.
	defer func() {
		ui.Acknowledge("Press Enter to close the browser session...")
		session.Close()
	}()

	loginURL := cfg.SocialSchools.BaseURL + cfg.SocialSchools.LoginPath
	if err := session.Login(loginURL, cfg.SocialSchools.HomeSelector, account, cfg.Browser.LoginTimeout); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	descriptors, err := loadCorpus(cfg, session)
	if err != nil {
		return err
	}

	s, err := scraper.New(cfg, session, log)
	if err != nil {
		return err
	}
	if err := s.Run(descriptors); err != nil {
		return err
	}

	return nil
}

// loadCorpus reads the links file, or scrapes the feed page when
// --from-feed is given
func loadCorpus(cfg *config.Config, session *browser.Session) ([]*posts.Descriptor, error) {
	if runFromFeed {
		feedURL := cfg.SocialSchools.BaseURL + cfg.SocialSchools.FeedPath
		return scraper.FetchFromFeed(session, feedURL, cfg.SocialSchools.HomeSelector, cfg.Scrape.NavTimeout, logger.GetLogger())
	}

	descriptors, err := posts.LoadCorpus(cfg.Output.LinksFile)
	if err != nil {
		return nil, fmt.Errorf("could not load corpus %s (run 'sspd fetch' first, or use --from-feed): %w",
			cfg.Output.LinksFile, err)
	}
	return descriptors, nil
}

// lookupAccount finds stored credentials for the configured email
func lookupAccount(cfg *config.Config, log logger.Logger) *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential store unavailable")
		return nil
	}

	if cfg.SocialSchools.Email != "" {
		if account, err := manager.Retrieve(cfg.SocialSchools.Email); err == nil {
			ui.PrintInfo("Using stored credentials", account.Email)
			return account
		}
		return &auth.Account{Email: cfg.SocialSchools.Email}
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) != 1 {
		return nil
	}
	ui.PrintInfo("Using stored credentials", accounts[0].Email)
	return accounts[0]
}
