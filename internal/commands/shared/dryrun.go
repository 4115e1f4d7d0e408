package shared

import (
	"fmt"
	"strings"
)

// DryRunAction classifies what a dry run would do to a resource.
type DryRunAction string

const (
	DryRunActionCreate DryRunAction = "CREATE"
	DryRunActionModify DryRunAction = "MODIFY"
	DryRunActionDelete DryRunAction = "DELETE"
)

// DryRunOutput collects the actions a command would perform, so every
// --dry-run renders the same way. Paths should use placeholders such as
// <data-dir> rather than full system paths where they may leak into
// shared terminals or CI logs.
type DryRunOutput struct {
	actions []string
}

// NewDryRunOutput creates an empty action list.
func NewDryRunOutput() *DryRunOutput {
	return &DryRunOutput{}
}

// Add records one action against a path. A non-empty note is appended in
// parentheses:
//
//	DELETE: <data-dir>/history.db (42 records)
func (d *DryRunOutput) Add(action DryRunAction, path, note string) {
	line := fmt.Sprintf("%s: %s", action, path)
	if note != "" {
		line += " (" + note + ")"
	}
	d.actions = append(d.actions, line)
}

// String renders the collected actions, one per line, framed by a header
// and a reminder that nothing ran.
func (d *DryRunOutput) String() string {
	if len(d.actions) == 0 {
		return "Dry run: nothing would change."
	}

	var sb strings.Builder
	sb.WriteString("Dry run: the following actions are planned:\n\n")
	for _, action := range d.actions {
		sb.WriteString(action)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nRun without --dry-run to apply them.")

	return sb.String()
}

// secretKeyHints are substrings that mark a key as carrying a secret value.
var secretKeyHints = []string{
	"token",
	"secret",
	"key",
	"password",
	"credential",
	"auth",
}

// MaskSensitiveData masks values whose key names them as secrets, for
// dry-run and preview output. Keys are matched case-insensitively.
func MaskSensitiveData(key, value string) string {
	lower := strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(lower, hint) {
			return "[REDACTED]"
		}
	}
	return value
}

// MaskHeaderValue masks credential-bearing HTTP header values for
// display. Non-sensitive headers pass through unchanged.
func MaskHeaderValue(name, value string) string {
	lower := strings.ToLower(name)
	if lower == "authorization" ||
		lower == "x-api-key" ||
		lower == "x-auth-token" ||
		strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		return "[REDACTED]"
	}
	return value
}

// PlaceholderPath replaces baseDir in fullPath with a placeholder:
//
//	/home/u/.local/share/preflight/history.db -> <data-dir>/history.db
//
// Paths outside baseDir come back unchanged.
func PlaceholderPath(fullPath, baseDir, placeholder string) string {
	return strings.Replace(fullPath, baseDir, placeholder, 1)
}
