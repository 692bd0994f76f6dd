package run

import (
	"regexp"
	"slices"
	"strings"
)

const (
	DefaultPlaybookBin  = "ansible-playbook"
	DefaultInventoryBin = "ansible-inventory"

	checkFlag = "--check"
)

// Command is an argv ready for exec. It is never passed through a shell.
type Command struct {
	Bin  string
	Args []string
	// Check records that Args already carry the check flag.
	Check bool
}

// BuildCommand assembles the ansible-playbook invocation for rc. Flag order is
// fixed: verbosity, inventory, playbook, tags, limit, check, diff.
func BuildCommand(bin string, rc RunConfig) Command {
	if bin == "" {
		bin = DefaultPlaybookBin
	}
	var args []string
	if rc.Verbosity > 0 {
		args = append(args, "-"+strings.Repeat("v", rc.Verbosity))
	}
	args = append(args, "-i", rc.Inventory, rc.Playbook)
	if rc.Tags != "" {
		args = append(args, "--tags", rc.Tags)
	}
	if rc.Limit != "" {
		args = append(args, "--limit", rc.Limit)
	}
	if rc.Check {
		args = append(args, checkFlag)
	}
	if rc.ShowDiff {
		args = append(args, "--diff")
	}
	return Command{Bin: bin, Args: args, Check: rc.Check}
}

// InventoryGraphCommand lists the hosts of inventory as a group tree.
func InventoryGraphCommand(bin, inventory string) Command {
	if bin == "" {
		bin = DefaultInventoryBin
	}
	return Command{Bin: bin, Args: []string{"-i", inventory, "--graph"}}
}

// WithCheck returns a copy of c that runs in check mode. Calling it on a
// command that already has --check changes nothing.
func (c Command) WithCheck() Command {
	args := slices.Clone(c.Args)
	if !c.Check {
		args = append(args, checkFlag)
	}
	return Command{Bin: c.Bin, Args: args, Check: true}
}

// Argv returns the binary followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Bin}, c.Args...)
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// String renders the command the way a user would type it.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quote(a)
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
