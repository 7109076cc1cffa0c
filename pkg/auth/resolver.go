package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"threadscli/pkg/logger"
)

// Environment variable aliases, most specific first
var (
	SessionIDEnv = []string{"THREADS_SESSION_ID", "SESSION_ID"}
	CSRFTokenEnv = []string{"THREADS_CSRF_TOKEN", "CSRF_TOKEN"}
	UserIDEnv    = []string{"THREADS_USER_ID", "DS_USER_ID"}
)

// ResolveInput carries explicit values and cookie source preferences
type ResolveInput struct {
	SessionID string
	CSRFToken string
	UserID    string

	// Browsers restricts and orders the browser back-ends; empty means DefaultBrowsers
	Browsers []string
	// Profiles maps a browser name to a profile selector
	Profiles map[string]string
	// CookieFile is an exported cookie JSON file tried before browsers
	CookieFile    string
	CookieTimeout time.Duration
	// DisableBrowsers skips browser cookie stores entirely
	DisableBrowsers bool
	// StoreProfile names the saved session to fall back to
	StoreProfile string
}

// Resolver merges credentials from explicit values, the environment,
// browser cookie stores and saved sessions, in that order
type Resolver struct {
	Getenv  func(string) string
	Cookies CookieSource
	Store   CredentialStore
	Logger  logger.Logger
}

// NewResolver creates a resolver reading the process environment
func NewResolver(cookies CookieSource, store CredentialStore, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Resolver{
		Getenv:  os.Getenv,
		Cookies: cookies,
		Store:   store,
		Logger:  log,
	}
}

type partial struct {
	sessionID, csrfToken, userID string
	sources                      []string
}

func (p *partial) complete() bool {
	return p.sessionID != "" && p.csrfToken != ""
}

// fill sets missing fields and records source when it contributed
func (p *partial) fill(source, sessionID, csrfToken, userID string) bool {
	contributed := false
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); *dst == "" && v != "" {
			*dst = v
			contributed = true
		}
	}
	set(&p.sessionID, sessionID)
	set(&p.csrfToken, csrfToken)
	set(&p.userID, userID)
	if contributed {
		p.sources = append(p.sources, source)
	}
	return contributed
}

func (p *partial) credentials() Credentials {
	return NewCredentials(p.sessionID, p.csrfToken, p.userID, strings.Join(p.sources, "+"))
}

// Resolve never fails. Stages that could not supply missing values add a
// warning; callers decide whether unusable credentials are fatal.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (Credentials, []string) {
	var p partial
	var warnings []string

	p.fill("cli", in.SessionID, in.CSRFToken, in.UserID)
	if p.complete() {
		return p.credentials(), nil
	}

	if !r.fromEnv(&p) {
		warnings = append(warnings, fmt.Sprintf("environment: %s and %s not both set",
			strings.Join(SessionIDEnv, "/"), strings.Join(CSRFTokenEnv, "/")))
	}
	if p.complete() {
		return r.done(p, warnings)
	}

	warnings = append(warnings, r.fromBrowsers(ctx, &p, in)...)
	if p.complete() {
		return r.done(p, warnings)
	}

	warnings = append(warnings, r.fromStore(&p, in.StoreProfile)...)
	return r.done(p, warnings)
}

func (r *Resolver) done(p partial, warnings []string) (Credentials, []string) {
	creds := p.credentials()
	r.Logger.DebugWithFields("credentials resolved", map[string]interface{}{
		"source":   creds.Source(),
		"usable":   creds.Usable(),
		"warnings": len(warnings),
	})
	return creds, warnings
}

func (r *Resolver) fromEnv(p *partial) bool {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(names []string) string {
		for _, name := range names {
			if v := strings.TrimSpace(getenv(name)); v != "" {
				return v
			}
		}
		return ""
	}
	p.fill("env", lookup(SessionIDEnv), lookup(CSRFTokenEnv), lookup(UserIDEnv))
	return p.complete()
}

func (r *Resolver) fromBrowsers(ctx context.Context, p *partial, in ResolveInput) []string {
	if in.DisableBrowsers {
		return nil
	}
	if r.Cookies == nil {
		return []string{"browser cookies: no cookie source available"}
	}

	var warnings []string
	var backends []CookieQuery
	if in.CookieFile != "" {
		backends = append(backends, CookieQuery{Browser: "file", File: in.CookieFile})
	}
	browsers := in.Browsers
	if len(browsers) == 0 {
		browsers = DefaultBrowsers
	}
	for _, b := range browsers {
		name := strings.ToLower(b)
		backends = append(backends, CookieQuery{Browser: name, Profile: in.Profiles[name]})
	}

	for _, q := range backends {
		q.Domains = CookieDomains
		q.Names = CookieNames
		q.Timeout = in.CookieTimeout

		cookies, warns, err := r.Cookies.Cookies(ctx, q)
		for _, w := range warns {
			warnings = append(warnings, q.Browser+": "+w)
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", q.Browser, err))
			continue
		}

		p.fill(q.Browser,
			pickCookie(cookies, CookieSessionID, CookieDomains),
			pickCookie(cookies, CookieCSRFToken, CookieDomains),
			pickCookie(cookies, CookieUserID, CookieDomains),
		)
		r.Logger.DebugWithFields("browser cookies read", map[string]interface{}{
			"browser": q.Browser,
			"cookies": len(cookies),
		})
		if p.complete() {
			return warnings
		}
	}

	names := make([]string, len(backends))
	for i, q := range backends {
		names[i] = q.Browser
	}
	warnings = append(warnings, fmt.Sprintf("browser cookies: no %s found in %s",
		strings.Join(missingNames(p), "/"), strings.Join(names, ", ")))
	return warnings
}

func (r *Resolver) fromStore(p *partial, profile string) []string {
	if r.Store == nil {
		return nil
	}
	if profile == "" {
		profile = DefaultProfile
	}

	account, err := r.Store.Retrieve(profile)
	if err != nil {
		if errors.Is(err, ErrCredentialsNotFound) {
			return []string{fmt.Sprintf("saved session: none stored for profile %q", profile)}
		}
		return []string{fmt.Sprintf("saved session: %v", err)}
	}
	p.fill("keyring", account.SessionID, account.CSRFToken, account.UserID)
	if !p.complete() {
		return []string{fmt.Sprintf("saved session: profile %q is incomplete", profile)}
	}
	return nil
}

func missingNames(p *partial) []string {
	var names []string
	if p.sessionID == "" {
		names = append(names, CookieSessionID)
	}
	if p.csrfToken == "" {
		names = append(names, CookieCSRFToken)
	}
	return names
}
