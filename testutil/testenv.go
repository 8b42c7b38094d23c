// Package testutil holds helpers for the live end-to-end tests. They run the
// built binary, so this package only needs the standard library.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AllowedItemsVar lists the item IDs the live tests may modify.
const AllowedItemsVar = "WEBSTORE_GO_ALLOWED_TEST_ITEMS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// parseEnvLine splits one .env line. Comments, blank lines and lines
// without '=' are skipped; surrounding quotes are stripped from the value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	line = strings.TrimPrefix(line, "export ")

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}

	return key, strings.Trim(strings.TrimSpace(value), "\"'"), true
}

// ValidateAllowlist exits the process unless the item named by itemEnvVar
// is listed in WEBSTORE_GO_ALLOWED_TEST_ITEMS. Uploads and publishes are
// real, so a typo must never reach a production listing.
func ValidateAllowlist(itemEnvVar string) {
	allowlist := os.Getenv(AllowedItemsVar)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowedItemsVar)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		os.Exit(1)
	}

	item := os.Getenv(itemEnvVar)
	if item == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", itemEnvVar)
		os.Exit(1)
	}

	if !itemAllowed(allowlist, item) {
		fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", itemEnvVar, item, AllowedItemsVar, allowlist)
		os.Exit(1)
	}
}

func itemAllowed(allowlist, item string) bool {
	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == item {
			return true
		}
	}

	return false
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
