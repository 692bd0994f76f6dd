package report

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const (
	HTMLTemplateName    = "report.html.tmpl"
	SummaryTemplateName = "summary.txt.tmpl"
)

//go:embed templates/*.tmpl
var builtinFS embed.FS

// Templates are the parsed report and summary templates of one render.
type Templates struct {
	html    *htmltemplate.Template
	summary *template.Template
}

// UserTemplateDir is where operator overrides live when no directory is
// configured: ~/.config/playrun/templates.
func UserTemplateDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "playrun", "templates")
}

// readTemplate returns dir/name when it exists, the embedded template otherwise.
func readTemplate(dir, name string) (string, error) {
	if dir != "" {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return string(data), nil
		}
	}
	data, err := builtinFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("loading report template %s: %w", name, err)
	}
	return string(data), nil
}

// LoadTemplates parses both templates, preferring overrides in dir. An empty
// dir means UserTemplateDir.
func LoadTemplates(dir string) (*Templates, error) {
	if dir == "" {
		dir = UserTemplateDir()
	}

	src, err := readTemplate(dir, HTMLTemplateName)
	if err != nil {
		return nil, err
	}
	html, err := htmltemplate.New(HTMLTemplateName).Funcs(sprig.FuncMap()).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing report template %s: %w", HTMLTemplateName, err)
	}

	src, err = readTemplate(dir, SummaryTemplateName)
	if err != nil {
		return nil, err
	}
	summary, err := template.New(SummaryTemplateName).Funcs(sprig.TxtFuncMap()).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing report template %s: %w", SummaryTemplateName, err)
	}

	return &Templates{html: html, summary: summary}, nil
}
