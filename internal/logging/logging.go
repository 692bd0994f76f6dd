package logging

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Setup initializes the global slog logger using charmbracelet/log as the backend.
// Logs always go to stderr so the playbook's own output on stdout stays clean.
// If stderr is a terminal, uses colored text format. Otherwise, uses JSON format.
func Setup(debug bool) {
	slog.SetDefault(New(os.Stderr, debug, isTerminal(os.Stderr)))
}

// New builds a logger writing to w.
func New(w io.Writer, debug, tty bool) *slog.Logger {
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "playrun",
	})

	if debug {
		handler.SetLevel(charmlog.DebugLevel)
	} else {
		handler.SetLevel(charmlog.InfoLevel)
	}

	if !tty {
		handler.SetFormatter(charmlog.JSONFormatter)
	}

	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
