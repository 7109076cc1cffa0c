package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/steipete/sweetcookie"
)

// DefaultBrowsers is the back-end order used when none is configured
var DefaultBrowsers = []string{"chrome", "safari", "firefox"}

// BrowserCookie is one cookie read from a browser store
type BrowserCookie struct {
	Name   string
	Value  string
	Domain string
}

// CookieQuery asks one back-end for cookies
type CookieQuery struct {
	// Browser is a browser name such as "chrome", or "file" for an exported cookie file
	Browser string
	// Profile selects a browser profile, profile directory or cookie database path
	Profile string
	// File is the exported cookie JSON read when Browser is "file"
	File    string
	Domains []string
	Names   []string
	Timeout time.Duration
}

// CookieSource reads cookies from local browsers
type CookieSource interface {
	Cookies(ctx context.Context, q CookieQuery) ([]BrowserCookie, []string, error)
}

// SweetCookieSource reads browser cookie stores through sweetcookie
type SweetCookieSource struct{}

// NewSweetCookieSource returns the default browser cookie source
func NewSweetCookieSource() *SweetCookieSource {
	return &SweetCookieSource{}
}

func (s *SweetCookieSource) Cookies(ctx context.Context, q CookieQuery) ([]BrowserCookie, []string, error) {
	if len(q.Domains) == 0 {
		return nil, nil, fmt.Errorf("no cookie domains requested")
	}

	opts := sweetcookie.Options{
		URL:     "https://www." + q.Domains[0] + "/",
		Names:   q.Names,
		Mode:    sweetcookie.ModeMerge,
		Timeout: q.Timeout,
	}
	for _, d := range q.Domains[1:] {
		opts.Origins = append(opts.Origins, "https://www."+d+"/")
	}

	if q.Browser == "file" {
		opts.Browsers = []sweetcookie.Browser{sweetcookie.BrowserInline}
		opts.Inline = sweetcookie.InlineCookies{File: q.File}
	} else {
		b := sweetcookie.Browser(strings.ToLower(q.Browser))
		opts.Browsers = []sweetcookie.Browser{b}
		if q.Profile != "" {
			opts.Profiles = map[sweetcookie.Browser]string{b: q.Profile}
		}
	}

	res, err := sweetcookie.Get(ctx, opts)
	if err != nil {
		return nil, res.Warnings, err
	}

	cookies := make([]BrowserCookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		cookies = append(cookies, BrowserCookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
	}
	return cookies, res.Warnings, nil
}

// pickCookie returns the value for name from the most preferred domain,
// falling back to a match on any domain
func pickCookie(cookies []BrowserCookie, name string, domains []string) string {
	for _, d := range domains {
		for _, c := range cookies {
			if c.Name == name && c.Value != "" && domainMatches(c.Domain, d) {
				return c.Value
			}
		}
	}
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func domainMatches(cookieDomain, domain string) bool {
	cd := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	return cd == domain || strings.HasSuffix(cd, "."+domain)
}
