package run

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

const confirmPrompt = "You are about to apply changes to PRODUCTION. Type 'yes' to continue:"

// Prompter reads one answer from the operator.
type Prompter interface {
	Prompt(title string) (string, error)
}

// LinePrompter reads a single line from In. Used when stdin is not a terminal.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p *LinePrompter) Prompt(title string) (string, error) {
	if p.Out != nil {
		fmt.Fprint(p.Out, title+" ")
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

// HuhPrompter asks through an interactive huh input field.
type HuhPrompter struct{}

func (HuhPrompter) Prompt(title string) (string, error) {
	var answer string
	err := huh.NewInput().
		Title(title).
		Placeholder("yes").
		Value(&answer).
		Run()
	return answer, err
}

// NewPrompter picks the huh prompter for terminals and a line reader otherwise.
func NewPrompter(in *os.File, out io.Writer) Prompter {
	if term.IsTerminal(int(in.Fd())) {
		return HuhPrompter{}
	}
	return &LinePrompter{In: in, Out: out}
}

// Confirmed reports whether answer is an affirmative "yes" in any case.
func Confirmed(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// Confirm gates non-check production runs behind an explicit "yes".
// Anything else, including a read error, aborts.
func Confirm(rc RunConfig, p Prompter, out io.Writer) error {
	if !rc.NeedsConfirmation() {
		return nil
	}
	answer, err := p.Prompt(confirmPrompt)
	if err != nil {
		slog.Debug("confirmation prompt failed", "error", err)
		answer = ""
	}
	if Confirmed(answer) {
		return nil
	}
	fmt.Fprintln(out, "Aborted")
	return ErrAborted
}
