package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/admin.txt
var adminRaw string

// Admin returns the system prompt for the administrative assistant.
// The embed is compile-time; trimming is cheap, so this is safe to call
// concurrently.
func Admin() string {
	return strings.TrimSpace(adminRaw)
}
