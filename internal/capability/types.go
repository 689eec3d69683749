package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
)

// Schema describes a capability's parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration tells the model what a capability does and which params it takes.
type Declaration struct {
	Name        Name    `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Signature renders the declaration as a single prompt line, e.g.
// `read_file(path: string, max_chars?: integer) - Read a text file`.
func (d Declaration) Signature() string {
	var args []string
	if d.Parameters != nil {
		required := make(map[string]bool, len(d.Parameters.Required))
		for _, r := range d.Parameters.Required {
			required[r] = true
		}
		names := make([]string, 0, len(d.Parameters.Properties))
		for n := range d.Parameters.Properties {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			opt := "?"
			if required[n] {
				opt = ""
			}
			p := d.Parameters.Properties[n]
			arg := fmt.Sprintf("%s%s: %s", n, opt, p.Type)
			if len(p.Enum) > 0 {
				arg += " (" + strings.Join(p.Enum, "|") + ")"
			}
			args = append(args, arg)
		}
	}
	return fmt.Sprintf("%s(%s) - %s", d.Name, strings.Join(args, ", "), d.Description)
}
