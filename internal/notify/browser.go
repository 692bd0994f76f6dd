package notify

import (
	"errors"
	"io"
	"os"
	"runtime"

	"github.com/pkg/browser"
)

var errNoDisplay = errors.New("no desktop display available")

// openFile is swapped out in tests.
var openFile = browser.OpenFile

func init() {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// DisplayAvailable reports whether a desktop session can show a browser.
func DisplayAvailable(goos string, getenv func(string) string) bool {
	switch goos {
	case "darwin", "windows":
		return true
	}
	return getenv("DISPLAY") != "" || getenv("WAYLAND_DISPLAY") != ""
}

// OpenReport opens path in the default browser when a display is available.
func OpenReport(path string) error {
	if !DisplayAvailable(runtime.GOOS, os.Getenv) {
		return errNoDisplay
	}
	return openFile(path)
}
