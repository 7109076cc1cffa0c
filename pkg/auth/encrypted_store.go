package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// PassphraseEnv overrides the generated passphrase file
const PassphraseEnv = "THREADSCLI_PASSPHRASE"

const (
	vaultVersion    = 2
	vaultIterations = 210_000
	vaultAAD        = "threadscli sessions"
)

// EncryptedFileStore keeps saved sessions in one AES-GCM sealed file. It
// backs the keyring on systems without a secret service.
type EncryptedFileStore struct {
	mu         sync.RWMutex
	path       string
	passphrase []byte
}

// vault is the on-disk envelope. The key is derived with PBKDF2-SHA256 from
// the passphrase and Salt; Data is nonce||ciphertext of the JSON account map.
type vault struct {
	Version    int    `json:"version"`
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Data       []byte `json:"data"`
}

// NewEncryptedFileStore creates the store. The passphrase comes from
// THREADSCLI_PASSPHRASE or a random one saved next to the file.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	pass, err := passphrase(filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Profile == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		accounts = map[string]Account{}
	case err != nil:
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	accounts[account.Profile] = *account
	return e.write(accounts)
}

func (e *EncryptedFileStore) Retrieve(profile string) (*Account, error) {
	if profile == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, err
	}
	account, ok := accounts[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (e *EncryptedFileStore) Delete(profile string) error {
	if profile == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.read()
	if errors.Is(err, os.ErrNotExist) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return err
	}
	if _, ok := accounts[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(accounts, profile)
	if len(accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.write(accounts)
}

func (e *EncryptedFileStore) Exists(profile string) bool {
	_, err := e.Retrieve(profile)
	return err == nil
}

func (e *EncryptedFileStore) read() (map[string]Account, error) {
	raw, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}
	var v vault
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", e.path, err)
	}
	if v.Version != vaultVersion {
		return nil, fmt.Errorf("session file %s has unsupported version %d", e.path, v.Version)
	}

	gcm, err := newGCM(e.passphrase, v.Salt, v.Iterations)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(v.Data) < n {
		return nil, fmt.Errorf("corrupt session file %s: data too short", e.path)
	}
	plain, err := gcm.Open(nil, v.Data[:n], v.Data[n:], []byte(vaultAAD))
	if err != nil {
		return nil, fmt.Errorf("cannot decrypt %s (wrong %s?): %w", e.path, PassphraseEnv, err)
	}

	var accounts map[string]Account
	if err := json.Unmarshal(plain, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

// write seals accounts under a fresh salt and nonce and replaces the file
func (e *EncryptedFileStore) write(accounts map[string]Account) error {
	plain, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	v := vault{Version: vaultVersion, Iterations: vaultIterations, Salt: make([]byte, 32)}
	if _, err := rand.Read(v.Salt); err != nil {
		return err
	}
	gcm, err := newGCM(e.passphrase, v.Salt, v.Iterations)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	v.Data = gcm.Seal(nonce, nonce, plain, []byte(vaultAAD))

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func newGCM(passphrase, salt []byte, iterations int) (cipher.AEAD, error) {
	if iterations < 1 || len(salt) == 0 {
		return nil, errors.New("corrupt session file: missing key parameters")
	}
	block, err := aes.NewCipher(pbkdf2.Key(passphrase, salt, iterations, 32, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// passphrase returns THREADSCLI_PASSPHRASE, else the contents of file,
// creating it with random content on first use
func passphrase(file string) ([]byte, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return []byte(p), nil
	}
	if b, err := os.ReadFile(file); err == nil && len(b) > 0 {
		return b, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	p := []byte(base64.RawURLEncoding.EncodeToString(b))
	if err := os.WriteFile(file, p, 0o600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return p, nil
}
