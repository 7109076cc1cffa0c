package auth

import "sync"

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	accounts map[string]Account
	mu       sync.RWMutex

	// Error injection
	StoreError    error
	RetrieveError error
	DeleteError   error

	// Retrievals counts Retrieve calls
	Retrievals int
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]Account)}
}

func (m *MockStore) Store(account *Account) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if account == nil || account.Profile == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Profile] = *account
	return nil
}

func (m *MockStore) Retrieve(profile string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Retrievals++
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	account, ok := m.accounts[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (m *MockStore) Delete(profile string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, profile)
	return nil
}

func (m *MockStore) Exists(profile string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[profile]
	return ok
}

// Count returns the number of saved accounts
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}
