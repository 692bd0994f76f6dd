// Package recap extracts play, task and per-host recap counters from
// ansible-playbook's human-readable output. All knowledge of that output
// format lives here.
package recap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Policy decides how per-host recap lines collapse into one set of counters.
type Policy string

const (
	// PolicyLast takes the value after the last "key=" occurrence in the log,
	// which reflects only the last host printed in a multi-host recap.
	PolicyLast Policy = "last"
	// PolicySum adds up the counters of every recap line.
	PolicySum Policy = "sum"
)

// ParsePolicy validates a policy name. Empty selects PolicyLast.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLast:
		return PolicyLast, nil
	case PolicySum:
		return PolicySum, nil
	}
	return "", fmt.Errorf("unknown counter policy %q (want %q or %q)", s, PolicyLast, PolicySum)
}

// Counters are the statistics shown in reports. Missing values are zero.
type Counters struct {
	Plays       int `json:"plays"`
	Tasks       int `json:"tasks"`
	OK          int `json:"ok"`
	Changed     int `json:"changed"`
	Failed      int `json:"failed"`
	Unreachable int `json:"unreachable"`
	Skipped     int `json:"skipped"`
	Rescued     int `json:"rescued"`
	Ignored     int `json:"ignored"`
}

// HostRecap is one "host : ok=N changed=N ..." line of the PLAY RECAP.
type HostRecap struct {
	Host        string `json:"host"`
	OK          int    `json:"ok"`
	Changed     int    `json:"changed"`
	Unreachable int    `json:"unreachable"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	Rescued     int    `json:"rescued"`
	Ignored     int    `json:"ignored"`
}

// Healthy reports whether the host had no failures and was reachable.
func (h HostRecap) Healthy() bool {
	return h.Failed == 0 && h.Unreachable == 0
}

// Summary is everything extracted from one log.
type Summary struct {
	Counters
	Hosts []HostRecap `json:"hosts"`
}

const (
	playMarker = "PLAY ["
	taskMarker = "TASK ["
)

var (
	keyPatterns = map[string]*regexp.Regexp{}
	recapLine   = regexp.MustCompile(`\bok=\d+`)
	recapKeys   = []string{"ok", "changed", "unreachable", "failed", "skipped", "rescued", "ignored"}
)

func init() {
	for _, k := range recapKeys {
		keyPatterns[k] = regexp.MustCompile(`\b` + k + `=(\d+)`)
	}
}

// Parse scans log and returns its counters according to policy.
func Parse(log string, policy Policy) Summary {
	text := ansi.Strip(log)
	var s Summary

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		switch {
		case strings.Contains(line, playMarker):
			s.Plays++
		case strings.Contains(line, taskMarker):
			s.Tasks++
		}
		if recapLine.MatchString(line) {
			s.Hosts = append(s.Hosts, parseHostLine(line))
		}
	}

	if policy == PolicySum {
		for _, h := range s.Hosts {
			s.OK += h.OK
			s.Changed += h.Changed
			s.Unreachable += h.Unreachable
			s.Failed += h.Failed
			s.Skipped += h.Skipped
			s.Rescued += h.Rescued
			s.Ignored += h.Ignored
		}
		return s
	}

	s.OK = lastValue(text, "ok")
	s.Changed = lastValue(text, "changed")
	s.Unreachable = lastValue(text, "unreachable")
	s.Failed = lastValue(text, "failed")
	s.Skipped = lastValue(text, "skipped")
	s.Rescued = lastValue(text, "rescued")
	s.Ignored = lastValue(text, "ignored")
	return s
}

// lastValue returns the integer after the last "key=" in text, or 0.
func lastValue(text, key string) int {
	matches := keyPatterns[key].FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}
	n, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0
	}
	return n
}

func lineValue(line, key string) int {
	m := keyPatterns[key].FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func parseHostLine(line string) HostRecap {
	h := HostRecap{
		OK:          lineValue(line, "ok"),
		Changed:     lineValue(line, "changed"),
		Unreachable: lineValue(line, "unreachable"),
		Failed:      lineValue(line, "failed"),
		Skipped:     lineValue(line, "skipped"),
		Rescued:     lineValue(line, "rescued"),
		Ignored:     lineValue(line, "ignored"),
	}
	if host, _, ok := strings.Cut(line, " : "); ok {
		h.Host = strings.TrimSpace(host)
	}
	return h
}
