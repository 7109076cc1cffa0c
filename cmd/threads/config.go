package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"threadscli/pkg/config"
	errs "threadscli/pkg/errors"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage threads configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (THREADSCLI_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to the per-user config directory unless a different
path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging every source. Credentials are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the files threads reads and writes",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
}

const exampleConfig = `# threads configuration file
#
# Every option can also be set with a THREADSCLI_* environment variable or a
# command line flag. Leave credentials empty to read them from your browser.

threads:
  # sessionid and csrftoken cookies of a logged-in threads.com tab
  session_id: ""
  csrf_token: ""
  # ds_user_id cookie (optional)
  user_id: ""

  # Browsers searched for cookies, in order
  browsers: [chrome, safari, firefox]
  # Profile name or path when you use more than one
  chrome_profile: ""
  firefox_profile: ""
  # Exported cookie JSON file tried before any browser
  cookie_file: ""
  cookie_timeout: 5s

  # Fall back to the session saved by 'threads auth login'
  use_keyring: true

client:
  base_url: "https://www.threads.com"
  timeout: 30s
  # Where discovered GraphQL doc ids are cached (default: config directory)
  doc_id_cache_path: ""
  # Upper bound on script bundles scanned during discovery
  max_bundles: 30
  static_asset_hosts: [static.cdninstagram.com]

pagination:
  # Pages fetched for listings unless --max-pages is given
  max_pages: 1
  # Items requested per page (upstream caps this at 50)
  page_size: 20

rate_limit:
  requests_per_minute: 60

retry:
  # Attempts per request, including the first
  max_attempts: 2
  initial_backoff: 1s
  max_backoff: 10s
  multiplier: 2.0

output:
  # auto (json when piped), json or text
  format: auto
  # Include the upstream payload in JSON output
  raw: false

download:
  # Directory for 'threads media' (default: the username, or threads-media)
  output_dir: ""
  # Parallel media downloads, 1 to 10
  concurrency: 3
  # Write a JSON sidecar next to every downloaded file
  metadata: true

logging:
  # debug, info, warn, error or disabled
  level: warn
  # Also append logs to this file
  file: ""
`

func defaultConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", errs.NewConfig(fmt.Sprintf("cannot locate config directory: %v", err))
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := defaultConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return errs.NewConfig(fmt.Sprintf("%s already exists (use --force to overwrite)", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file created: %s\n", path)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Log in to threads.com in your browser, or run 'threads auth login'")
	fmt.Fprintln(out, "2. Check the session with 'threads auth status --check'")
	fmt.Fprintln(out, "3. Try 'threads user <username>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	display := *cfg
	display.Threads.SessionID = mask(display.Threads.SessionID)
	display.Threads.CSRFToken = mask(display.Threads.CSRFToken)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	source := configFile
	if source == "" {
		source = config.FindConfigFile()
	}
	if source == "" {
		source = "(none found)"
	}
	fmt.Fprintf(out, "\n# loaded from: %s\n", source)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	found := configFile
	if found == "" {
		found = config.FindConfigFile()
	}
	if found == "" {
		if def, err := defaultConfigPath(); err == nil {
			found = def + " (not created)"
		}
	}
	fmt.Fprintf(out, "config:      %s\n", found)

	cfg := config.DefaultConfig()
	_ = cfg.LoadFromFile(configFile)
	if p, err := cfg.DocIDCachePath(); err == nil {
		fmt.Fprintf(out, "doc ids:     %s\n", p)
	}
	if dir, err := config.ConfigDir(); err == nil {
		fmt.Fprintf(out, "credentials: %s\n", filepath.Join(dir, "credentials.enc"))
	}
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "..." + s[len(s)-4:]
	}
}
