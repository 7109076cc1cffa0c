package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"threadscli/pkg/auth"
	"threadscli/pkg/config"
	errs "threadscli/pkg/errors"
	"threadscli/pkg/logger"
	"threadscli/pkg/threads"
)

// session bundles everything a data command needs
type session struct {
	cfg    *config.Config
	log    logger.Logger
	client *threads.Client
	out    *printer
}

// openManager opens the saved-session store: the system keychain with an
// encrypted file next to the config as fallback
func openManager() (*auth.Manager, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot locate config directory: %w", err)
	}
	return auth.NewManager(filepath.Join(dir, "credentials.enc"))
}

// resolveInput translates the merged configuration into resolver input
func resolveInput(cfg *config.Config) auth.ResolveInput {
	profiles := map[string]string{}
	if cfg.Threads.ChromeProfile != "" {
		profiles["chrome"] = cfg.Threads.ChromeProfile
	}
	if cfg.Threads.FirefoxProfile != "" {
		profiles["firefox"] = cfg.Threads.FirefoxProfile
	}
	return auth.ResolveInput{
		SessionID:       cfg.Threads.SessionID,
		CSRFToken:       cfg.Threads.CSRFToken,
		UserID:          cfg.Threads.UserID,
		Browsers:        cfg.Threads.Browsers,
		Profiles:        profiles,
		CookieFile:      cfg.Threads.CookieFile,
		CookieTimeout:   cfg.Threads.CookieTimeout,
		DisableBrowsers: noBrowser,
		StoreProfile:    accountName,
	}
}

// resolveCredentials runs the credential chain. The saved-session stage is
// skipped when the keyring is disabled or unavailable.
func resolveCredentials(ctx context.Context, cfg *config.Config, log logger.Logger) (auth.Credentials, []string) {
	var store auth.CredentialStore
	if cfg.Threads.UseKeyring {
		if m, err := openManager(); err == nil {
			store = m
		} else {
			log.WithError(err).Debug("saved sessions unavailable")
		}
	}
	resolver := auth.NewResolver(auth.NewSweetCookieSource(), store, log)
	return resolver.Resolve(ctx, resolveInput(cfg))
}

// missingCredentials builds the error shown when no stage produced a usable session
func missingCredentials(creds auth.Credentials, warnings []string) error {
	msg := fmt.Sprintf("no usable Threads session: missing %s; pass --session-id and --csrf-token, "+
		"set THREADS_SESSION_ID and THREADS_CSRF_TOKEN, log in to threads.com in a browser, "+
		"or run 'threads auth login'", strings.Join(creds.Missing(), " and "))
	if len(warnings) > 0 {
		msg += "\n  " + strings.Join(warnings, "\n  ")
	}
	return errs.NewConfig(msg)
}

// newSession loads configuration, resolves credentials and builds the client.
// Resolution warnings are only shown when they matter, i.e. when no usable
// session was found or debug logging is on.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	creds, warnings := resolveCredentials(cmd.Context(), cfg, log)
	if !creds.Usable() {
		return nil, missingCredentials(creds, warnings)
	}
	for _, w := range warnings {
		log.WithField("stage", "credentials").Debug(w)
	}
	log.WithField("source", creds.Source()).Info("using session")

	client, err := threads.FromConfig(cfg, creds, log)
	if err != nil {
		return nil, err
	}
	if refreshIDs {
		if _, err := client.DocIDs(cmd.Context(), true); err != nil {
			return nil, err
		}
	}

	return &session{
		cfg:    cfg,
		log:    log,
		client: client,
		out:    newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output),
	}, nil
}
