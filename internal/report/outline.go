package report

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Play is one entry of the playbook outline shown in the report.
type Play struct {
	Name   string
	Hosts  string
	Roles  []string
	Tasks  int
	Import string
}

type playYAML struct {
	Name           string      `yaml:"name"`
	Hosts          yaml.Node   `yaml:"hosts"`
	Roles          []yaml.Node `yaml:"roles"`
	PreTasks       []yaml.Node `yaml:"pre_tasks"`
	Tasks          []yaml.Node `yaml:"tasks"`
	PostTasks      []yaml.Node `yaml:"post_tasks"`
	ImportPlaybook string      `yaml:"import_playbook"`
}

// LoadOutline lists the plays of a playbook without interpreting them.
func LoadOutline(path string) ([]Play, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playbook %s: %w", path, err)
	}
	var raw []playYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing playbook %s: %w", path, err)
	}

	plays := make([]Play, 0, len(raw))
	for _, p := range raw {
		play := Play{
			Name:   p.Name,
			Hosts:  nodeList(&p.Hosts),
			Tasks:  len(p.PreTasks) + len(p.Tasks) + len(p.PostTasks),
			Import: p.ImportPlaybook,
		}
		for i := range p.Roles {
			if r := roleName(&p.Roles[i]); r != "" {
				play.Roles = append(play.Roles, r)
			}
		}
		plays = append(plays, play)
	}
	return plays, nil
}

// nodeList renders a scalar or a sequence of scalars as a comma list.
func nodeList(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind == yaml.ScalarNode {
				parts = append(parts, c.Value)
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// roleName accepts both "- common" and "- role: common" forms.
func roleName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			switch n.Content[i].Value {
			case "role", "name":
				return n.Content[i+1].Value
			}
		}
	}
	return ""
}
