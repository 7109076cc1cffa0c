package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cookie names carrying the web session
const (
	CookieSessionID = "sessionid"
	CookieCSRFToken = "csrftoken"
	CookieUserID    = "ds_user_id"
)

// CookieDomains lists the domains that may hold the session, most preferred first
var CookieDomains = []string{"threads.com", "threads.net", "instagram.com"}

// CookieNames are the cookies requested from browser stores
var CookieNames = []string{CookieSessionID, CookieCSRFToken, CookieUserID}

// Credentials is an immutable set of session values. The cookie header is
// derived from the other fields at construction.
type Credentials struct {
	sessionID    string
	csrfToken    string
	userID       string
	cookieHeader string
	source       string
}

// NewCredentials trims its inputs and derives the cookie header
func NewCredentials(sessionID, csrfToken, userID, source string) Credentials {
	c := Credentials{
		sessionID: strings.TrimSpace(sessionID),
		csrfToken: strings.TrimSpace(csrfToken),
		userID:    strings.TrimSpace(userID),
		source:    source,
	}

	var parts []string
	if c.sessionID != "" {
		parts = append(parts, CookieSessionID+"="+c.sessionID)
	}
	if c.csrfToken != "" {
		parts = append(parts, CookieCSRFToken+"="+c.csrfToken)
	}
	if c.userID != "" {
		parts = append(parts, CookieUserID+"="+c.userID)
	}
	c.cookieHeader = strings.Join(parts, "; ")
	return c
}

func (c Credentials) SessionID() string    { return c.sessionID }
func (c Credentials) CSRFToken() string    { return c.csrfToken }
func (c Credentials) UserID() string       { return c.userID }
func (c Credentials) CookieHeader() string { return c.cookieHeader }

// Source names the resolution stages that contributed, e.g. "env+chrome"
func (c Credentials) Source() string { return c.source }

// Usable reports whether both the session id and the CSRF token are present
func (c Credentials) Usable() bool {
	return c.sessionID != "" && c.csrfToken != ""
}

// Missing lists the required cookie names that are absent
func (c Credentials) Missing() []string {
	var missing []string
	if c.sessionID == "" {
		missing = append(missing, CookieSessionID)
	}
	if c.csrfToken == "" {
		missing = append(missing, CookieCSRFToken)
	}
	return missing
}

// String renders the credentials with secrets masked
func (c Credentials) String() string {
	return fmt.Sprintf("sessionid=%s csrftoken=%s ds_user_id=%s source=%s",
		maskString(c.sessionID), maskString(c.csrfToken), c.userID, c.source)
}

// Account is a saved session as kept in a credential store
type Account struct {
	Profile      string    `json:"profile"`
	Username     string    `json:"username,omitempty"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserID       string    `json:"user_id,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// DefaultProfile is the store key used when no profile is named
const DefaultProfile = "default"

// CredentialStore is the interface for storing and retrieving saved sessions
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(profile string) (*Account, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager stores sessions in the system keychain, falling back to an
// encrypted file when no keychain is reachable
func NewManager(encryptedPath string) (*Manager, error) {
	var stores []CredentialStore
	stores = append(stores, NewKeyringStore())

	encryptedStore, err := NewEncryptedFileStore(encryptedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the account using the first store that accepts it
func (m *Manager) Store(account *Account) error {
	if account == nil {
		return ErrInvalidCredentials
	}
	if account.Profile == "" {
		account.Profile = DefaultProfile
	}
	if strings.TrimSpace(account.SessionID) == "" {
		return errors.New("session ID is required")
	}
	if strings.TrimSpace(account.CSRFToken) == "" {
		return errors.New("CSRF token is required")
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the account from the first store that has it
func (m *Manager) Retrieve(profile string) (*Account, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if account, err := store.Retrieve(profile); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Delete removes the account from every store
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}
	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return ErrCredentialsNotFound
}

// Exists checks whether any store holds the profile
func (m *Manager) Exists(profile string) bool {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if store.Exists(profile) {
			return true
		}
	}
	return false
}

// SanitizeAccount creates a copy of the account with sensitive data masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	sanitized := *account
	sanitized.SessionID = maskString(account.SessionID)
	sanitized.CSRFToken = maskString(account.CSRFToken)
	return &sanitized
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
