package driver

import (
	"fmt"
	"io"

	"golang.org/x/term"
)

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

// TerminalPINReader reads a PIN from the terminal fd without echo. The
// newline the terminal swallows is written to out.
func TerminalPINReader(fd int, out io.Writer) func() (string, error) {
	return func() (string, error) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
