package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying the
// session cookies out of a logged-in browser
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	lines := []string{
		rule,
		"THREADS COOKIE GUIDE",
		rule,
		"",
		"threads reads your session cookies straight from Chrome, Safari or",
		"Firefox when you are logged in to threads.com. Use this guide only when",
		"automatic detection fails or you run on a machine without a browser.",
		"",
		"STEP 1: Log in",
		"   - Open https://www.threads.com and make sure your feed loads",
		"",
		"STEP 2: Open Developer Tools",
		"   - Chrome/Edge/Brave: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)",
		"   - Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)",
		"   - Safari: enable the Develop menu, then Cmd+Option+I",
		"",
		"STEP 3: Find the cookies",
		"   - Application tab (Chrome) or Storage tab (Firefox)",
		"   - Expand Cookies and select https://www.threads.com",
		"",
		"STEP 4: Copy these values",
		"   sessionid    required, looks like 12345678%3Aabcdef...",
		"   csrftoken    required, 32 characters",
		"   ds_user_id   optional, your numeric account id",
		"",
		"Then either run `threads auth login`, export THREADS_SESSION_ID and",
		"THREADS_CSRF_TOKEN, or pass --session-id and --csrf-token.",
		"",
		"WARNING: these cookies give full access to your account. Never share them.",
		rule,
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// ShowQuickExtractGuide writes a condensed version for experienced users
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "Quick guide: F12 > Application > Cookies > https://www.threads.com")
	fmt.Fprintln(w, "   Need: sessionid and csrftoken (ds_user_id optional)")
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
