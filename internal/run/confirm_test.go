package run

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	answer string
	err    error
	calls  int
}

func (p *scriptedPrompter) Prompt(string) (string, error) {
	p.calls++
	return p.answer, p.err
}

func TestConfirmed(t *testing.T) {
	for _, in := range []string{"yes", "YES", "Yes", " yes\n", "yEs\r\n"} {
		assert.True(t, Confirmed(in), "%q", in)
	}
	for _, in := range []string{"", "y", "no", "yes please", "ye s"} {
		assert.False(t, Confirmed(in), "%q", in)
	}
}

func TestConfirmProductionDeclined(t *testing.T) {
	var out bytes.Buffer
	p := &scriptedPrompter{answer: "no"}

	err := Confirm(RunConfig{Environment: "production"}, p, &out)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "Aborted\n", out.String())
}

func TestConfirmProductionAccepted(t *testing.T) {
	var out bytes.Buffer
	p := &scriptedPrompter{answer: "YES"}

	require.NoError(t, Confirm(RunConfig{Environment: "production"}, p, &out))
	assert.Empty(t, out.String())
}

func TestConfirmPromptErrorAborts(t *testing.T) {
	var out bytes.Buffer
	p := &scriptedPrompter{answer: "yes", err: errors.New("user aborted")}

	assert.ErrorIs(t, Confirm(RunConfig{Environment: "production"}, p, &out), ErrAborted)
}

func TestConfirmSkipped(t *testing.T) {
	for _, rc := range []RunConfig{
		{Environment: "production", Check: true},
		{Environment: "staging"},
		{Environment: "staging", Check: true},
	} {
		p := &scriptedPrompter{}
		require.NoError(t, Confirm(rc, p, &bytes.Buffer{}))
		assert.Zero(t, p.calls, "%+v", rc)
	}
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := &LinePrompter{In: strings.NewReader("yes\nignored\n"), Out: &out}

	answer, err := p.Prompt("Continue?")
	require.NoError(t, err)
	assert.Equal(t, "yes\n", answer)
	assert.Equal(t, "Continue? ", out.String())
}

func TestLinePrompterEOF(t *testing.T) {
	p := &LinePrompter{In: strings.NewReader("")}
	answer, err := p.Prompt("Continue?")
	require.NoError(t, err)
	assert.False(t, Confirmed(answer))
}
