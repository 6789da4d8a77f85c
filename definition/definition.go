// Package definition describes hfsm machines declaratively and builds them.
//
// A definition is written in YAML or JSON:
//
//	initial: idle
//	states:
//	  - name: idle
//	    permit:
//	      - trigger: start
//	        to: live
//	  - name: idle_full
//	    parent: idle
//	    permit:
//	      - trigger: join
//	        to: idle_full
//	        guards:
//	          - tag: not-banned
//	            arg_not_equals: banned
//	  - name: live
//	    dynamic:
//	      - trigger: whistle
//	        choose: {half: half_time, full: idle}
//
// Machines built from a definition use string states and triggers. Trigger
// arguments are compared as strings; unquoted numbers and booleans in choose
// keys and guard values are read as their string form.
package definition

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a definition document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Definition is a complete machine description.
type Definition struct {
	Initial string     `mapstructure:"initial" yaml:"initial" json:"initial"`
	States  []StateDef `mapstructure:"states" yaml:"states" json:"states"`
}

// StateDef describes one state.
type StateDef struct {
	Name   string `mapstructure:"name" yaml:"name" json:"name"`
	Parent string `mapstructure:"parent" yaml:"parent,omitempty" json:"parent,omitempty"`

	// LogEntry logs every entry into the state at info level.
	LogEntry bool `mapstructure:"log_entry" yaml:"log_entry,omitempty" json:"log_entry,omitempty"`

	Permit  []PermitDef  `mapstructure:"permit" yaml:"permit,omitempty" json:"permit,omitempty"`
	Dynamic []DynamicDef `mapstructure:"dynamic" yaml:"dynamic,omitempty" json:"dynamic,omitempty"`
}

// PermitDef is a static rule.
type PermitDef struct {
	Trigger string     `mapstructure:"trigger" yaml:"trigger" json:"trigger"`
	To      string     `mapstructure:"to" yaml:"to" json:"to"`
	Guards  []GuardDef `mapstructure:"guards" yaml:"guards,omitempty" json:"guards,omitempty"`
}

// DynamicDef is a dynamic rule choosing the destination from the argument.
type DynamicDef struct {
	Trigger string            `mapstructure:"trigger" yaml:"trigger" json:"trigger"`
	Choose  map[string]string `mapstructure:"choose" yaml:"choose" json:"choose"`
	// Default is used when the argument is not in Choose. Empty means the
	// decider fails with ErrNoChoice.
	Default string     `mapstructure:"default" yaml:"default,omitempty" json:"default,omitempty"`
	Guards  []GuardDef `mapstructure:"guards" yaml:"guards,omitempty" json:"guards,omitempty"`
}

// GuardDef is a declarative guard. Exactly one condition must be set.
type GuardDef struct {
	Tag          string  `mapstructure:"tag" yaml:"tag" json:"tag"`
	ArgEquals    *string `mapstructure:"arg_equals" yaml:"arg_equals,omitempty" json:"arg_equals,omitempty"`
	ArgNotEquals *string `mapstructure:"arg_not_equals" yaml:"arg_not_equals,omitempty" json:"arg_not_equals,omitempty"`
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// Load reads a definition file. The format follows the file extension.
func Load(path string) (*Definition, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("definition %s: unsupported extension %q", path, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a definition document.
func Parse(data []byte, format Format) (*Definition, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if raw == nil {
		return nil, errors.New("empty definition")
	}

	def, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Decode converts a generic map, as produced by any YAML or JSON decoder,
// into a Definition. Unknown keys are rejected.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
		TagName:     "mapstructure",
		DecodeHook:  scalarToString,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &def, nil
}

// scalarToString lets numbers and booleans stand where strings are expected,
// such as choose keys and guard values. They are formatted like ArgString so
// they match the arguments fired at runtime.
func scalarToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return ArgString(data), nil
	}
	return data, nil
}

// Marshal encodes the definition in the given format.
func (d *Definition) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
