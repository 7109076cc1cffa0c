package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"threadscli/pkg/config"
	errs "threadscli/pkg/errors"
	"threadscli/pkg/logger"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile     string
	logLevel       string
	sessionID      string
	csrfToken      string
	userID         string
	browsers       []string
	chromeProfile  string
	firefoxProfile string
	cookiesFile    string
	noBrowser      bool
	accountName    string
	timeout        time.Duration
	outputFormat   string
	maxPages       int
	includeRaw     bool
	refreshIDs     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "threads",
	Short: "Read Threads profiles, posts and timelines from the command line",
	Long: `threads is a command-line client for the Threads web API.

It signs in with your own browser session. Credentials are taken from, in order:
  - --session-id / --csrf-token / --user-id flags (or the config file)
  - THREADS_SESSION_ID, THREADS_CSRF_TOKEN and THREADS_USER_ID
  - cookies of a logged-in browser (Chrome, Safari, Firefox)
  - a session saved with 'threads auth login'

Output is JSON when stdout is not a terminal, and readable text otherwise.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failure to the process status: 2 for local
// configuration problems, 1 for everything else
func exitCode(err error) int {
	if errs.Is(err, errs.KindConfig) {
		return 2
	}
	return 1
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.threadscli.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")

	pf.StringVar(&sessionID, "session-id", "", "sessionid cookie value")
	pf.StringVar(&csrfToken, "csrf-token", "", "csrftoken cookie value")
	pf.StringVar(&userID, "user-id", "", "ds_user_id cookie value")
	pf.StringSliceVar(&browsers, "browser", nil, "browsers to read cookies from, in order (chrome, safari, firefox, ...)")
	pf.StringVar(&chromeProfile, "chrome-profile", "", "Chrome profile name or path")
	pf.StringVar(&firefoxProfile, "firefox-profile", "", "Firefox profile name or path")
	pf.StringVar(&cookiesFile, "cookies-file", "", "exported cookie JSON file, tried before browsers")
	pf.BoolVar(&noBrowser, "no-browser", false, "never read browser cookie stores")
	pf.StringVarP(&accountName, "account", "a", "", "saved session to fall back to (default \"default\")")

	pf.DurationVar(&timeout, "timeout", 0, "per-request timeout (default 30s)")
	pf.StringVarP(&outputFormat, "format", "f", "", "output format: auto, json, text")
	pf.IntVar(&maxPages, "max-pages", 0, "maximum number of pages to fetch for listings (default 1)")
	pf.BoolVar(&includeRaw, "raw", false, "include the upstream payload in JSON output")
	pf.BoolVar(&refreshIDs, "refresh-ids", false, "rediscover GraphQL doc ids before the request")

	rootCmd.SetVersionTemplate(`threads {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the config file, environment and global flags, then
// sets up the global logger
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, config.Flags{
		SessionID:      sessionID,
		CSRFToken:      csrfToken,
		UserID:         userID,
		Browsers:       browsers,
		ChromeProfile:  chromeProfile,
		FirefoxProfile: firefoxProfile,
		CookieFile:     cookiesFile,
		Timeout:        timeout,
		MaxPages:       maxPages,
		Format:         outputFormat,
		Raw:            includeRaw,
		LogLevel:       logLevel,
	})
	if err != nil {
		return nil, nil, errs.NewConfig(err.Error())
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, errs.NewConfig(err.Error())
	}
	log := logger.GetLogger()
	log.DebugWithFields("configuration loaded", map[string]interface{}{
		"config_file": configFile,
		"base_url":    cfg.Client.BaseURL,
		"max_pages":   cfg.Pagination.MaxPages,
	})
	return cfg, log, nil
}
