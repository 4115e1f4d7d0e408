package format

import (
	"os"

	"golang.org/x/term"

	"github.com/probekit/preflight/internal/commands/shared"
)

// IsTTY reports whether stdout should receive terminal formatting.
// --no-color, a non-empty NO_COLOR, a dumb or missing TERM, and a piped
// stdout all disable it.
func IsTTY() bool {
	if shared.GetNoColor() || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if t := os.Getenv("TERM"); t == "dumb" || t == "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
