package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 60, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, []string{"chrome", "safari", "firefox"}, config.Threads.Browsers)
	assert.Equal(t, "https://www.threads.com", config.Client.BaseURL)
	assert.Equal(t, 30, config.Client.MaxBundles)
	assert.Equal(t, 1, config.Pagination.MaxPages)
	assert.Equal(t, "auto", config.Output.Format)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("THREADSCLI_BASE_URL", "http://localhost:9999")
	t.Setenv("THREADSCLI_TIMEOUT", "5s")
	t.Setenv("THREADSCLI_MAX_PAGES", "4")
	t.Setenv("THREADSCLI_BROWSERS", "Firefox, safari")
	t.Setenv("THREADSCLI_OUTPUT", "json")
	t.Setenv("THREADSCLI_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "http://localhost:9999", config.Client.BaseURL)
	assert.Equal(t, 5*time.Second, config.Client.Timeout)
	assert.Equal(t, 4, config.Pagination.MaxPages)
	assert.Equal(t, []string{"firefox", "safari"}, config.Threads.Browsers)
	assert.Equal(t, "json", config.Output.Format)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("THREADSCLI_TIMEOUT", "soon")
	t.Setenv("THREADSCLI_MAX_PAGES", "many")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THREADSCLI_TIMEOUT")
	assert.Contains(t, err.Error(), "THREADSCLI_MAX_PAGES")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{
			name:      "missing base url",
			modify:    func(c *Config) { c.Client.BaseURL = "" },
			wantError: "base URL",
		},
		{
			name:      "zero max pages",
			modify:    func(c *Config) { c.Pagination.MaxPages = 0 },
			wantError: "max pages",
		},
		{
			name:      "unknown browser",
			modify:    func(c *Config) { c.Threads.Browsers = []string{"netscape"} },
			wantError: "netscape",
		},
		{
			name:      "bad format",
			modify:    func(c *Config) { c.Output.Format = "xml" },
			wantError: "output format",
		},
		{
			name:      "too many download workers",
			modify:    func(c *Config) { c.Download.Concurrency = 50 },
			wantError: "download concurrency",
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: "log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Threads.Browsers = []string{"safari"}
	config.Pagination.MaxPages = 3
	config.Client.Timeout = 12 * time.Second
	require.NoError(t, config.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, []string{"safari"}, loaded.Threads.Browsers)
	assert.Equal(t, 3, loaded.Pagination.MaxPages)
	assert.Equal(t, 12*time.Second, loaded.Client.Timeout)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: [unterminated"), 0o600))

	err := DefaultConfig().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestMergeFlags(t *testing.T) {
	config := DefaultConfig()
	config.Threads.SessionID = "from-file"

	config.MergeFlags(Flags{
		SessionID: "from-flag",
		Browsers:  []string{"firefox"},
		MaxPages:  7,
		Raw:       true,
	})

	assert.Equal(t, "from-flag", config.Threads.SessionID)
	assert.Equal(t, []string{"firefox"}, config.Threads.Browsers)
	assert.Equal(t, 7, config.Pagination.MaxPages)
	assert.True(t, config.Output.Raw)
	// Unset flags leave existing values alone
	assert.Equal(t, "auto", config.Output.Format)
	assert.Equal(t, 30*time.Second, config.Client.Timeout)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pagination:\n  max_pages: 2\noutput:\n  format: text\n"), 0o600))

	t.Setenv("THREADSCLI_OUTPUT", "json")

	config, err := Load(path, Flags{MaxPages: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, config.Pagination.MaxPages)
	assert.Equal(t, "json", config.Output.Format)
}

func TestDocIDCachePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	config := DefaultConfig()
	config.Client.DocIDCachePath = "/custom/ids.json"
	path, err := config.DocIDCachePath()
	require.NoError(t, err)
	assert.Equal(t, "/custom/ids.json", path)

	config.Client.DocIDCachePath = ""
	path, err = config.DocIDCachePath()
	require.NoError(t, err)
	assert.Equal(t, "doc-ids.json", filepath.Base(path))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(path)))
}
