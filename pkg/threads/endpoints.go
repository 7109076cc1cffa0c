package threads

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"

	errs "threadscli/pkg/errors"
)

const (
	// BaseURL is the Threads web origin
	BaseURL = "https://www.threads.com"
	// MobileBaseURL serves the Android app API used as a fallback for account info
	MobileBaseURL = "https://i.instagram.com"

	GraphQLEndpoint     = "/graphql/query"
	CurrentUserEndpoint = "/api/v1/accounts/current_user/?edit=true"

	// WebAppID and ASBDID identify the web client to the API
	WebAppID = "238260118697367"
	ASBDID   = "129477"
	// MobileAppID identifies the Threads Android app
	MobileAppID     = "3419628305025917"
	MobileUserAgent = "Barcelona 289.0.0.77.109 Android (34/14; 420dpi; 1080x2340; Google; Pixel 8; shiba; shiba; en_US; 489720145)"

	// DefaultPageSize is the number of items requested per page
	DefaultPageSize = 20
	// MaxPageSize is the largest page the API accepts
	MaxPageSize = 50
)

const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// shortcodeLength is the significant prefix of a short code; longer codes carry a suffix
const shortcodeLength = 11

// ShortcodeToID decodes a post short code into its numeric media id
func ShortcodeToID(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("empty short code")
	}
	if len(code) > shortcodeLength {
		code = code[:shortcodeLength]
	}

	id := new(big.Int)
	base := big.NewInt(64)
	for _, r := range code {
		i := strings.IndexRune(shortcodeAlphabet, r)
		if i < 0 {
			return "", fmt.Errorf("invalid character %q in short code", r)
		}
		id.Mul(id, base)
		id.Add(id, big.NewInt(int64(i)))
	}
	return id.String(), nil
}

// IDToShortcode encodes a numeric media id as a short code
func IDToShortcode(id string) (string, error) {
	n, ok := new(big.Int).SetString(id, 10)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("invalid media id %q", id)
	}
	if n.Sign() == 0 {
		return shortcodeAlphabet[:1], nil
	}

	var out []byte
	base := big.NewInt(64)
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		out = append(out, shortcodeAlphabet[mod.Int64()])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

// PostRef identifies a post by numeric id and, when known, short code
type PostRef struct {
	ID   string
	Code string
}

// ParsePostRef accepts a numeric id, a short code or a post URL
func ParsePostRef(ref string) (PostRef, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return PostRef{}, errs.NewConfig("empty post reference")
	}

	if strings.Contains(ref, "/") {
		code, err := codeFromURL(ref)
		if err != nil {
			return PostRef{}, err
		}
		ref = code
	}

	if isDigits(ref) {
		return PostRef{ID: ref}, nil
	}
	id, err := ShortcodeToID(ref)
	if err != nil {
		return PostRef{}, errs.NewConfig(fmt.Sprintf("invalid post reference %q: %v", ref, err))
	}
	return PostRef{ID: id, Code: ref}, nil
}

// codeFromURL extracts the code following a /post/ or /t/ path segment
func codeFromURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errs.NewConfig(fmt.Sprintf("invalid post URL: %v", err))
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "post" || segments[i] == "t" {
			return segments[i+1], nil
		}
	}
	return "", errs.NewConfig(fmt.Sprintf("no post code in URL %q", raw))
}

// PostURL returns the public URL of a post
func PostURL(username, code string) string {
	if code == "" {
		return ""
	}
	if username == "" {
		return fmt.Sprintf("%s/t/%s", BaseURL, code)
	}
	return fmt.Sprintf("%s/@%s/post/%s", BaseURL, username, code)
}

// ProfileURL returns the public profile URL for a user
func ProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/@%s", BaseURL, username)
}

// IsValidUsername checks a handle against the allowed character set
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, a profile URL prefix and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if i := strings.Index(username, "/@"); i >= 0 {
		username = username[i+2:]
	}
	username = strings.TrimPrefix(username, "@")
	if i := strings.IndexAny(username, "/?"); i >= 0 {
		username = username[:i]
	}
	return strings.TrimRight(username, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func clampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
