package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"threadscli/pkg/auth"
	"threadscli/pkg/threads"
)

var (
	loginFromBrowser bool
	loginNoVerify    bool
	loginQuick       bool
	statusCheck      bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the saved Threads session",
	Long: `Manage the Threads session used when no flags, environment variables
or browser cookies provide one.

Sessions are stored in the system keychain, or in an encrypted file
when no keychain is available. Never share your cookie values!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Save a session from pasted cookies or from a browser",
	Long: `Save a Threads session under a profile name ("default" if omitted).

You will be prompted for the sessionid and csrftoken cookies of a logged-in
threads.com tab. With --from-browser the cookies are read from your browser
instead. The session is checked against the API before it is saved unless
--no-verify is given.`,
	Example: `  # Paste cookies interactively
  threads auth login

  # Copy the session out of Firefox into the "work" profile
  threads auth login work --from-browser --browser firefox`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a saved session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the session comes from",
	Long: `Run the credential chain and report which source supplied the session,
with secrets masked. With --check the session is also used to fetch the
current account.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	loginCmd.Flags().BoolVar(&loginFromBrowser, "from-browser", false, "read the cookies from a browser instead of prompting")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "save without checking the session")
	loginCmd.Flags().BoolVar(&loginQuick, "quick", false, "show the short cookie guide")
	statusCmd.Flags().BoolVar(&statusCheck, "check", false, "verify the session against the API")

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

var errLoginCancelled = errors.New("login cancelled")

func profileArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if accountName != "" {
		return accountName
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	manager, err := openManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := profileArg(args)
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if manager.Exists(profile) {
		fmt.Fprintf(out, "Profile %q already has a saved session. Replace it? (y/N): ", profile)
		if !confirm(reader) {
			return nil
		}
	}

	var creds auth.Credentials
	if loginFromBrowser {
		in := resolveInput(cfg)
		in.SessionID, in.CSRFToken, in.UserID = "", "", ""
		resolver := auth.NewResolver(auth.NewSweetCookieSource(), nil, log)
		resolver.Getenv = func(string) string { return "" }
		var warnings []string
		creds, warnings = resolver.Resolve(cmd.Context(), in)
		if !creds.Usable() {
			return missingCredentials(creds, warnings)
		}
		fmt.Fprintf(out, "Found a session in %s\n", creds.Source())
	} else {
		creds, err = promptCredentials(out, reader)
		if err != nil {
			return err
		}
	}

	account := &auth.Account{
		Profile:   profile,
		SessionID: creds.SessionID(),
		CSRFToken: creds.CSRFToken(),
		UserID:    creds.UserID(),
	}

	if !loginNoVerify {
		fmt.Fprintln(out, "Checking the session...")
		client, err := threads.FromConfig(cfg, creds, log)
		if err != nil {
			return err
		}
		me, err := client.CurrentUser(cmd.Context())
		if err != nil {
			return fmt.Errorf("session check failed (use --no-verify to save anyway): %w", err)
		}
		account.Username = me.Username
		if account.UserID == "" {
			account.UserID = me.ID
		}
		fmt.Fprintf(out, "Signed in as @%s\n", me.Username)
	}

	if err := manager.Store(account); err != nil {
		return err
	}
	log.WithField("profile", profile).Info("session saved")

	fmt.Fprintf(out, "\nSession saved as profile %q.\n", profile)
	fmt.Fprintln(out, "It is used whenever no flags, environment variables or browser cookies provide one.")
	if profile != auth.DefaultProfile {
		fmt.Fprintf(out, "Select it with: threads --account %s <command>\n", profile)
	}
	return nil
}

// promptCredentials shows the cookie guide and reads the values with echo off
func promptCredentials(out io.Writer, reader *bufio.Reader) (auth.Credentials, error) {
	if loginQuick {
		auth.ShowQuickExtractGuide(out)
	} else {
		auth.ShowCookieExtractionGuide(out)
	}

	fmt.Fprint(out, "Ready to enter your cookies? (Y/n): ")
	if answer, _ := reader.ReadString('\n'); strings.EqualFold(strings.TrimSpace(answer), "n") {
		return auth.Credentials{}, errLoginCancelled
	}

	fmt.Fprintln(out, "\nEnter your cookie values (input is hidden):")
	sessionID, err := promptSecret(out, reader, "sessionid: ", validSessionID,
		"That doesn't look like a sessionid. It is a long value like 1234567%3AAbCd...%3A12%3A...")
	if err != nil {
		return auth.Credentials{}, err
	}
	csrf, err := promptSecret(out, reader, "csrftoken: ", validCSRFToken,
		"That doesn't look like a csrftoken. It is about 32 letters and digits.")
	if err != nil {
		return auth.Credentials{}, err
	}

	fmt.Fprint(out, "ds_user_id (optional, press Enter to skip): ")
	uid, _ := reader.ReadString('\n')

	creds := auth.NewCredentials(sessionID, csrf, uid, "prompt")
	fmt.Fprintf(out, "\n%s\n", creds)
	return creds, nil
}

func promptSecret(out io.Writer, reader *bufio.Reader, label string, valid func(string) bool, hint string) (string, error) {
	for {
		fmt.Fprint(out, label)
		value, err := readPassword(reader)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if valid(value) {
			return value, nil
		}
		fmt.Fprintln(out, hint)
		fmt.Fprint(out, "Try again? (Y/n): ")
		if answer, _ := reader.ReadString('\n'); strings.EqualFold(strings.TrimSpace(answer), "n") {
			return "", errLoginCancelled
		}
	}
}

func validSessionID(s string) bool {
	return len(s) >= 20 && (strings.Contains(s, "%3A") || strings.Contains(s, ":"))
}

func validCSRFToken(s string) bool {
	return len(s) >= 20 && len(s) <= 64 && !strings.ContainsAny(s, " ;=")
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func confirm(reader *bufio.Reader) bool {
	input, _ := reader.ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y")
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := openManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	profile := profileArg(args)
	if err := manager.Delete(profile); err != nil {
		return fmt.Errorf("failed to remove profile %q: %w", profile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed saved session %q\n", profile)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	creds, warnings := resolveCredentials(cmd.Context(), cfg, log)
	if !creds.Usable() {
		return missingCredentials(creds, warnings)
	}
	fmt.Fprintf(out, "source:     %s\n", creds.Source())
	fmt.Fprintf(out, "session:    %s\n", creds)
	for _, w := range warnings {
		fmt.Fprintf(out, "note:       %s\n", w)
	}

	if !statusCheck {
		return nil
	}
	client, err := threads.FromConfig(cfg, creds, log)
	if err != nil {
		return err
	}
	me, err := client.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "account:    @%s (%s)\n", me.Username, me.ID)
	return nil
}
