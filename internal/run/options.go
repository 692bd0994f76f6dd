package run

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
)

// ProductionEnv is the environment that requires interactive confirmation.
const ProductionEnv = "production"

// RunConfig is the resolved, read-only description of one playbook run.
type RunConfig struct {
	Environment string `json:"environment" validate:"required,env_name"`
	Playbook    string `json:"playbook" validate:"required"`
	Inventory   string `json:"inventory" validate:"required"`
	Tags        string `json:"tags,omitempty"`
	Limit       string `json:"limit,omitempty"`
	Check       bool   `json:"check"`
	Verbosity   int    `json:"verbosity" validate:"min=0"`
	ShowDiff    bool   `json:"show_diff"`
}

// IsProduction reports whether the run targets the production environment.
func (c RunConfig) IsProduction() bool {
	return c.Environment == ProductionEnv
}

// NeedsConfirmation reports whether the confirmation gate applies.
// Only check mode skips it.
func (c RunConfig) NeedsConfirmation() bool {
	return c.IsProduction() && !c.Check
}

// Defaults seeds flag defaults, normally from the loaded configuration.
type Defaults struct {
	Environment string
	Playbook    string
	Inventory   string
}

// Flags holds raw flag values before they are resolved into a RunConfig.
type Flags struct {
	Environment string
	Playbook    string
	Inventory   string
	Tags        string
	Limit       string
	Check       bool
	Verbose     int
	NoDiff      bool
}

// Bind registers the run flags on fs.
func (f *Flags) Bind(fs *pflag.FlagSet, d Defaults) {
	if d.Environment == "" {
		d.Environment = ProductionEnv
	}
	fs.StringVarP(&f.Environment, "env", "e", d.Environment, "Target environment (selects the .env file)")
	fs.StringVarP(&f.Playbook, "playbook", "p", d.Playbook, "Playbook file")
	fs.StringVarP(&f.Inventory, "inventory", "i", d.Inventory, "Inventory file")
	fs.StringVarP(&f.Tags, "tags", "t", "", "Only run tasks tagged with these values")
	fs.StringVarP(&f.Limit, "limit", "l", "", "Limit the run to a host pattern")
	fs.BoolVarP(&f.Check, "check", "c", false, "Dry run: predict changes without applying them")
	fs.CountVarP(&f.Verbose, "verbose", "v", "Increase ansible verbosity (repeatable: -v, -vv, -vvv)")
	fs.BoolVar(&f.NoDiff, "no-diff", false, "Do not show file diffs")
}

// Resolve converts the parsed flags into a validated RunConfig.
func (f Flags) Resolve() (RunConfig, error) {
	rc := RunConfig{
		Environment: strings.TrimSpace(f.Environment),
		Playbook:    f.Playbook,
		Inventory:   f.Inventory,
		Tags:        f.Tags,
		Limit:       f.Limit,
		Check:       f.Check,
		Verbosity:   f.Verbose,
		ShowDiff:    !f.NoDiff,
	}
	if err := rc.Validate(); err != nil {
		return RunConfig{}, err
	}
	return rc, nil
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	envNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	flagNames = map[string]string{
		"Environment": "--env",
		"Playbook":    "--playbook",
		"Inventory":   "--inventory",
		"Verbosity":   "--verbose",
	}
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("env_name", func(fl validator.FieldLevel) bool {
			return envNamePattern.MatchString(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// Validate checks field constraints and reports the first violation as a UsageError.
func (c RunConfig) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &UsageError{Message: err.Error()}
	}
	fe := verrs[0]
	arg := flagNames[fe.Field()]
	switch fe.Tag() {
	case "required":
		return &UsageError{Arg: arg, Message: "missing value"}
	case "env_name":
		return &UsageError{Arg: arg, Message: fmt.Sprintf("invalid environment name %q", fe.Value())}
	default:
		return &UsageError{Arg: arg, Message: fmt.Sprintf("failed %q constraint", fe.Tag())}
	}
}
