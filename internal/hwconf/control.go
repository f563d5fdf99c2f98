package hwconf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ControlType is the kind of widget editing a setting.
type ControlType int

const (
	ControlAuto   ControlType = iota // Chosen from the value type
	ControlNone                      // Hidden
	ControlText                      // Read-only label
	ControlSlider
	ControlRadio
	ControlCombo
	ControlFloat // Free text field holding a number
)

var controlNames = map[ControlType]string{
	ControlAuto:   "auto",
	ControlNone:   "none",
	ControlText:   "text",
	ControlSlider: "slider",
	ControlRadio:  "radio",
	ControlCombo:  "combo",
	ControlFloat:  "float",
}

func (c ControlType) String() string {
	if s, ok := controlNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ControlType(%d)", int(c))
}

// ParseControlType returns the control type with the given name.
func ParseControlType(s string) (ControlType, error) {
	for c, name := range controlNames {
		if name == s {
			return c, nil
		}
	}
	return ControlAuto, fmt.Errorf("unknown control type %q", s)
}

// UnmarshalYAML decodes a control type from its name.
func (c *ControlType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseControlType(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}
