package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadscli/pkg/logger"
)

type fakeCookieSource struct {
	cookies map[string][]BrowserCookie
	errs    map[string]error
	queries []CookieQuery
}

func (f *fakeCookieSource) Cookies(_ context.Context, q CookieQuery) ([]BrowserCookie, []string, error) {
	f.queries = append(f.queries, q)
	if err := f.errs[q.Browser]; err != nil {
		return nil, nil, err
	}
	return f.cookies[q.Browser], nil, nil
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newTestResolver(env map[string]string, cookies *fakeCookieSource, store CredentialStore) (*Resolver, *logger.TestLogger) {
	log := logger.NewTestLogger()
	r := NewResolver(cookies, store, log)
	r.Getenv = envMap(env)
	return r, log
}

func TestResolveExplicitShortCircuits(t *testing.T) {
	cookies := &fakeCookieSource{}
	store := NewMockStore()
	r, _ := newTestResolver(map[string]string{"THREADS_SESSION_ID": "env-session"}, cookies, store)

	creds, warnings := r.Resolve(context.Background(), ResolveInput{SessionID: "cli-session", CSRFToken: "cli-csrf"})

	assert.Equal(t, "cli-session", creds.SessionID())
	assert.Equal(t, "cli", creds.Source())
	assert.Empty(t, warnings)
	assert.Empty(t, cookies.queries)
	assert.Zero(t, store.Retrievals)
}

func TestResolveEnvironmentAliases(t *testing.T) {
	r, _ := newTestResolver(map[string]string{
		"THREADS_SESSION_ID": "   ",
		"SESSION_ID":         "fallback-session",
		"CSRF_TOKEN":         "env-csrf",
		"DS_USER_ID":         "7",
	}, &fakeCookieSource{}, nil)

	creds, warnings := r.Resolve(context.Background(), ResolveInput{})

	assert.Equal(t, "fallback-session", creds.SessionID())
	assert.Equal(t, "env-csrf", creds.CSRFToken())
	assert.Equal(t, "7", creds.UserID())
	assert.Equal(t, "env", creds.Source())
	assert.Empty(t, warnings)
}

func TestResolveWhitespaceEnvFallsBackToBrowser(t *testing.T) {
	cookies := &fakeCookieSource{cookies: map[string][]BrowserCookie{
		"chrome": {
			{Name: CookieSessionID, Value: "chrome-session", Domain: ".threads.com"},
			{Name: CookieCSRFToken, Value: "chrome-csrf", Domain: ".threads.com"},
		},
	}}
	r, _ := newTestResolver(map[string]string{
		"THREADS_SESSION_ID": " \t",
		"THREADS_CSRF_TOKEN": "  ",
	}, cookies, nil)

	creds, _ := r.Resolve(context.Background(), ResolveInput{Browsers: []string{"chrome"}})

	assert.True(t, creds.Usable())
	assert.Equal(t, "chrome-session", creds.SessionID())
	assert.Equal(t, "chrome", creds.Source())
	assert.Len(t, cookies.queries, 1)
}

func TestResolveProfileForMixedCaseBrowser(t *testing.T) {
	cookies := &fakeCookieSource{}
	r, _ := newTestResolver(nil, cookies, nil)

	r.Resolve(context.Background(), ResolveInput{
		Browsers: []string{"Chrome"},
		Profiles: map[string]string{"chrome": "Work"},
	})

	require.Len(t, cookies.queries, 1)
	assert.Equal(t, "chrome", cookies.queries[0].Browser)
	assert.Equal(t, "Work", cookies.queries[0].Profile)
}

func TestResolveMergesPartialStages(t *testing.T) {
	cookies := &fakeCookieSource{cookies: map[string][]BrowserCookie{
		"chrome": {
			{Name: CookieSessionID, Value: "chrome-session", Domain: ".threads.com"},
			{Name: CookieCSRFToken, Value: "chrome-csrf", Domain: ".threads.com"},
		},
	}}
	r, _ := newTestResolver(nil, cookies, nil)

	creds, _ := r.Resolve(context.Background(), ResolveInput{SessionID: "cli-session", Browsers: []string{"chrome"}})

	assert.Equal(t, "cli-session", creds.SessionID())
	assert.Equal(t, "chrome-csrf", creds.CSRFToken())
	assert.Equal(t, "cli+chrome", creds.Source())
}

func TestResolveBrowserDomainPreference(t *testing.T) {
	cookies := &fakeCookieSource{cookies: map[string][]BrowserCookie{
		"safari": {
			{Name: CookieSessionID, Value: "ig-session", Domain: ".instagram.com"},
			{Name: CookieSessionID, Value: "net-session", Domain: "www.threads.net"},
			{Name: CookieCSRFToken, Value: "ig-csrf", Domain: "instagram.com"},
		},
	}}
	r, _ := newTestResolver(nil, cookies, nil)

	creds, warnings := r.Resolve(context.Background(), ResolveInput{Browsers: []string{"safari"}})

	assert.Equal(t, "net-session", creds.SessionID())
	assert.Equal(t, "ig-csrf", creds.CSRFToken())
	assert.Equal(t, "safari", creds.Source())
	assert.Len(t, warnings, 1, "only the environment stage should warn")
	require.Len(t, cookies.queries, 1)
	assert.Equal(t, CookieDomains, cookies.queries[0].Domains)
	assert.Equal(t, CookieNames, cookies.queries[0].Names)
}

func TestResolveBrowserOrderAndFailures(t *testing.T) {
	cookies := &fakeCookieSource{
		errs: map[string]error{"chrome": errors.New("keychain access denied")},
		cookies: map[string][]BrowserCookie{
			"firefox": {
				{Name: CookieSessionID, Value: "ff-session", Domain: ".threads.com"},
				{Name: CookieCSRFToken, Value: "ff-csrf", Domain: ".threads.com"},
			},
		},
	}
	r, _ := newTestResolver(nil, cookies, nil)

	creds, warnings := r.Resolve(context.Background(), ResolveInput{})

	assert.Equal(t, "firefox", creds.Source())
	require.Len(t, cookies.queries, 3)
	assert.Equal(t, "chrome", cookies.queries[0].Browser)
	assert.Equal(t, "safari", cookies.queries[1].Browser)
	assert.Equal(t, "firefox", cookies.queries[2].Browser)

	var sawChrome bool
	for _, w := range warnings {
		if w == "chrome: keychain access denied" {
			sawChrome = true
		}
	}
	assert.True(t, sawChrome, "warnings: %v", warnings)
}

func TestResolveCookieFileBeforeBrowsers(t *testing.T) {
	cookies := &fakeCookieSource{cookies: map[string][]BrowserCookie{
		"file": {
			{Name: CookieSessionID, Value: "file-session", Domain: "threads.com"},
			{Name: CookieCSRFToken, Value: "file-csrf", Domain: "threads.com"},
		},
	}}
	r, _ := newTestResolver(nil, cookies, nil)

	creds, _ := r.Resolve(context.Background(), ResolveInput{CookieFile: "/tmp/cookies.json"})

	assert.Equal(t, "file", creds.Source())
	require.Len(t, cookies.queries, 1)
	assert.Equal(t, "/tmp/cookies.json", cookies.queries[0].File)
}

func TestResolveFallsBackToStore(t *testing.T) {
	store := NewMockStore()
	require.NoError(t, store.Store(&Account{Profile: DefaultProfile, SessionID: "saved-session", CSRFToken: "saved-csrf", UserID: "1"}))
	r, _ := newTestResolver(nil, &fakeCookieSource{}, store)

	creds, warnings := r.Resolve(context.Background(), ResolveInput{Browsers: []string{"chrome"}})

	assert.True(t, creds.Usable())
	assert.Equal(t, "keyring", creds.Source())
	assert.Equal(t, 1, store.Retrievals)
	assert.Len(t, warnings, 2)
}

func TestResolveNothingFound(t *testing.T) {
	r, log := newTestResolver(nil, &fakeCookieSource{}, NewMockStore())

	creds, warnings := r.Resolve(context.Background(), ResolveInput{Browsers: []string{"chrome"}, StoreProfile: "work"})

	assert.False(t, creds.Usable())
	assert.Empty(t, creds.Source())
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[2], `"work"`)
	assert.True(t, log.HasMessage("credentials resolved"))
}

func TestResolveDisableBrowsers(t *testing.T) {
	cookies := &fakeCookieSource{}
	r, _ := newTestResolver(nil, cookies, nil)

	_, warnings := r.Resolve(context.Background(), ResolveInput{DisableBrowsers: true})

	assert.Empty(t, cookies.queries)
	assert.Len(t, warnings, 1)
}

func TestDomainMatches(t *testing.T) {
	assert.True(t, domainMatches(".threads.com", "threads.com"))
	assert.True(t, domainMatches("www.threads.com", "threads.com"))
	assert.False(t, domainMatches("notthreads.com", "threads.com"))
	assert.False(t, domainMatches("threads.net", "threads.com"))
}
