package hwconf

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"scopeview/internal/model"
)

//go:embed settings.yaml
var defaultSettings []byte

// ErrUnknownGenerator is returned for a choices generator name that does not
// exist.
var ErrUnknownGenerator = errors.New("unknown choices generator")

// Setting describes how one hardware setting is presented.
type Setting struct {
	Name        string      `yaml:"name"`
	Label       string      `yaml:"label,omitempty"`
	Tooltip     string      `yaml:"tooltip,omitempty"`
	Control     ControlType `yaml:"control,omitempty"`
	ControlFunc string      `yaml:"control_func,omitempty"`
	Scale       string      `yaml:"scale,omitempty"` // linear, log or cubic
	Range       []float64   `yaml:"range,omitempty"`
	Choices     []float64   `yaml:"choices,omitempty"`
	Generator   string      `yaml:"generator,omitempty"`
	Type        string      `yaml:"type,omitempty"`
	Accuracy    int         `yaml:"accuracy,omitempty"`
}

// Hidden reports whether the setting must not be displayed.
func (s Setting) Hidden() bool {
	return s.Control == ControlNone
}

// ResolveControl returns the control type, evaluating control_func against
// the settings the component provides.
func (s Setting) ResolveControl(hasSetting func(name string) bool) ControlType {
	switch s.ControlFunc {
	case "":
		return s.Control
	case "mag_if_no_hfw":
		return MagnificationControl(hasSetting("horizontalFoV"))
	}
	return s.Control
}

type generator func(va any) (any, error)

func typed[V, R any](f func(*model.VA[V]) R) generator {
	return func(va any) (any, error) {
		v, ok := va.(*model.VA[V])
		if !ok {
			return nil, fmt.Errorf("expected %T, got %T", v, va)
		}
		return f(v), nil
	}
}

var generators = map[string]generator{
	"binning_1d_from_2d":               typed(Binning1DFrom2D),
	"binning_firstd_only":              typed(BinningFirstDimOnly),
	"resolution_from_range":            typed(ResolutionFromRange),
	"resolution_from_range_plus_point": typed(ResolutionFromRangePlusPoint),
	"hfw_choices":                      typed(HFWChoices),
}

// ChoicesFor returns the values to offer for va. The result has the type of
// the generator output ([]float64 or [][]int). Settings without choices return
// model.ErrNotApplicable.
func (s Setting) ChoicesFor(va any) (any, error) {
	if s.Generator == "" {
		if s.Choices != nil {
			return s.Choices, nil
		}
		return nil, model.ErrNotApplicable
	}
	gen, ok := generators[s.Generator]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, s.Generator)
	}
	choices, err := gen(va)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", s.Name, err)
	}
	return choices, nil
}

// RoleSettings lists the settings of a component role, in display order.
type RoleSettings struct {
	Role     string    `yaml:"role"`
	Settings []Setting `yaml:"vas"`
}

type overrideFile struct {
	Settings  []RoleSettings `yaml:"settings"`
	Overrides []struct {
		Microscope string `yaml:"microscope"`
		Settings   []struct {
			Role string      `yaml:"role"`
			VAs  []yaml.Node `yaml:"vas"`
		} `yaml:"settings"`
	} `yaml:"overrides"`
}

// Table is the settings table for one microscope.
type Table struct {
	roles []RoleSettings
}

// Default returns the built-in table with the overrides of the given
// microscope role applied. An empty or unknown microscope gets the defaults.
func Default(microscope string) (*Table, error) {
	return Load(defaultSettings, microscope)
}

// Load parses a settings table and applies the overrides of microscope.
func Load(data []byte, microscope string) (*Table, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	t := &Table{roles: f.Settings}

	for _, o := range f.Overrides {
		if o.Microscope != microscope {
			continue
		}
		for _, rs := range o.Settings {
			for i := range rs.VAs {
				if err := t.override(rs.Role, &rs.VAs[i]); err != nil {
					return nil, fmt.Errorf("override %s/%s: %w", microscope, rs.Role, err)
				}
			}
		}
	}
	return t, nil
}

// override decodes node on top of the existing setting, so only the keys
// present in node change.
func (t *Table) override(role string, node *yaml.Node) error {
	var key struct {
		Name string `yaml:"name"`
	}
	if err := node.Decode(&key); err != nil {
		return err
	}
	if key.Name == "" {
		return fmt.Errorf("line %d: setting without name", node.Line)
	}

	ri := t.roleIndex(role)
	if ri < 0 {
		t.roles = append(t.roles, RoleSettings{Role: role})
		ri = len(t.roles) - 1
	}
	rs := &t.roles[ri]
	for i := range rs.Settings {
		if rs.Settings[i].Name == key.Name {
			return node.Decode(&rs.Settings[i])
		}
	}
	var s Setting
	if err := node.Decode(&s); err != nil {
		return err
	}
	rs.Settings = append(rs.Settings, s)
	return nil
}

func (t *Table) roleIndex(role string) int {
	for i, rs := range t.roles {
		if rs.Role == role {
			return i
		}
	}
	return -1
}

// Roles returns the component roles in table order.
func (t *Table) Roles() []string {
	roles := make([]string, len(t.roles))
	for i, rs := range t.roles {
		roles[i] = rs.Role
	}
	return roles
}

// Settings returns the settings of role, in display order.
func (t *Table) Settings(role string) []Setting {
	if i := t.roleIndex(role); i >= 0 {
		return t.roles[i].Settings
	}
	return nil
}

// Visible returns the settings of role that are not hidden.
func (t *Table) Visible(role string) []Setting {
	var out []Setting
	for _, s := range t.Settings(role) {
		if !s.Hidden() {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the setting named va of role.
func (t *Table) Lookup(role, va string) (Setting, bool) {
	for _, s := range t.Settings(role) {
		if s.Name == va {
			return s, true
		}
	}
	return Setting{}, false
}
