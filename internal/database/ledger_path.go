package database

import (
	"os"
	"path/filepath"
	"strings"
)

const ledgerFile = "ledger.db"

// DefaultPathKeyword in ledger.path selects DefaultPath.
const DefaultPathKeyword = "default"

// DefaultPath returns the ledger location under the user's config directory,
// falling back to the working directory when that cannot be resolved.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".tagnotes", ledgerFile)
	}
	return filepath.Join(configDir, "tagnotes", ledgerFile)
}

// ResolvePath maps the configured ledger path to a file path. Blank means
// the ledger is disabled.
func ResolvePath(configured string) string {
	configured = strings.TrimSpace(configured)
	if strings.EqualFold(configured, DefaultPathKeyword) {
		return DefaultPath()
	}
	return configured
}
