// Package runcfg models a trainer run configuration as an ordered list of
// named parameters and renders it into a command-line argument vector.
//
// Supported value types are string, int, float64, bool, []int and []string.
// A bool parameter is a switch: true renders as the bare flag, false renders
// as nothing. Parameters render in insertion order, so the same configuration
// always produces the same argv.
package runcfg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Param is one named trainer parameter.
type Param struct {
	Name  string
	Value any
}

// Config is an ordered set of trainer parameters. The zero value is an empty
// configuration ready for use.
type Config struct {
	params []Param
}

// New creates a Config holding the given parameters in order.
func New(params ...Param) Config {
	c := Config{params: make([]Param, 0, len(params))}
	c.params = append(c.params, params...)
	return c
}

// Len returns the number of parameters.
func (c *Config) Len() int {
	return len(c.params)
}

// Set adds a parameter or replaces the value of an existing one. A replaced
// parameter keeps its position, so overriding a preset value does not move
// the flag within the rendered argv.
func (c *Config) Set(name string, value any) {
	for i := range c.params {
		if c.params[i].Name == name {
			c.params[i].Value = value
			return
		}
	}
	c.params = append(c.params, Param{Name: name, Value: value})
}

// Get returns the value for name.
func (c *Config) Get(name string) (any, bool) {
	for _, p := range c.params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// GetString returns the value for name as a string, or "" when the
// parameter is absent or not a string.
func (c *Config) GetString(name string) string {
	v, ok := c.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Delete removes the parameter named name, if present.
func (c *Config) Delete(name string) {
	for i := range c.params {
		if c.params[i].Name == name {
			c.params = append(c.params[:i], c.params[i+1:]...)
			return
		}
	}
}

// Names returns the parameter names in insertion order.
func (c *Config) Names() []string {
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.Name
	}
	return names
}

// Clone returns a deep copy. Slice values are copied, so mutating the clone
// never changes the original.
func (c *Config) Clone() Config {
	clone := Config{params: make([]Param, len(c.params))}
	for i, p := range c.params {
		switch v := p.Value.(type) {
		case []int:
			clone.params[i] = Param{Name: p.Name, Value: append([]int(nil), v...)}
		case []string:
			clone.params[i] = Param{Name: p.Name, Value: append([]string(nil), v...)}
		default:
			clone.params[i] = p
		}
	}
	return clone
}

// Args renders the configuration as a trainer argument vector.
//
// Each parameter becomes "--name" followed by its formatted value; switches
// contribute only the flag when true and nothing when false; list values
// contribute one token per element after the flag.
func (c *Config) Args() []string {
	args := make([]string, 0, len(c.params)*2)
	for _, p := range c.params {
		switch v := p.Value.(type) {
		case bool:
			if v {
				args = append(args, "--"+p.Name)
			}
		case []int:
			args = append(args, "--"+p.Name)
			for _, n := range v {
				args = append(args, strconv.Itoa(n))
			}
		case []string:
			args = append(args, "--"+p.Name)
			args = append(args, v...)
		default:
			args = append(args, "--"+p.Name, formatScalar(v))
		}
	}
	return args
}

// Params returns the parameters as a map for recording and display. List and
// scalar values are shared with the config; callers must not mutate them.
func (c *Config) Params() map[string]any {
	m := make(map[string]any, len(c.params))
	for _, p := range c.params {
		m[p.Name] = p.Value
	}
	return m
}

// SetAll applies the parameters from m in sorted key order, normalizing
// values decoded from YAML or JSON (int64, float32, []any) to the supported
// types. Sorted application keeps the rendered argv deterministic for
// parameters that are new to the configuration.
func (c *Config) SetAll(m map[string]any) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, err := normalizeValue(m[name])
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		c.Set(name, v)
	}
	return nil
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// normalizeValue maps decoder output onto the supported parameter types.
func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case string, int, float64, bool, []int, []string:
		return x, nil
	case int64:
		return int(x), nil
	case float32:
		return float64(x), nil
	case []any:
		return normalizeList(x)
	case nil:
		return nil, fmt.Errorf("null value not supported")
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// normalizeList converts a decoded []any into []int when every element is an
// integer, otherwise into []string of formatted elements.
func normalizeList(list []any) (any, error) {
	ints := make([]int, 0, len(list))
	allInts := true
	for _, e := range list {
		switch n := e.(type) {
		case int:
			ints = append(ints, n)
		case int64:
			ints = append(ints, int(n))
		default:
			allInts = false
		}
		if !allInts {
			break
		}
	}
	if allInts {
		return ints, nil
	}

	strs := make([]string, 0, len(list))
	for _, e := range list {
		switch s := e.(type) {
		case string:
			strs = append(strs, s)
		case int, int64, float64, bool:
			strs = append(strs, formatScalar(s))
		default:
			return nil, fmt.Errorf("unsupported list element type %T", e)
		}
	}
	return strs, nil
}

// ParseOverride parses a "name=value" override from the command line,
// inferring the value type: "true"/"false" become switches, numbers become
// int or float64, space-separated tokens become a list, anything else stays
// a string. An empty value means "remove this parameter" and is reported
// with a nil value.
func ParseOverride(s string) (name string, value any, err error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("override %q must be name=value", s)
	}
	if raw == "" {
		return name, nil, nil
	}
	return name, inferValue(raw), nil
}

func inferValue(raw string) any {
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if strings.Contains(raw, " ") {
		tokens := strings.Fields(raw)
		ints := make([]int, 0, len(tokens))
		allInts := true
		for _, tok := range tokens {
			n, err := strconv.Atoi(tok)
			if err != nil {
				allInts = false
				break
			}
			ints = append(ints, n)
		}
		if allInts {
			return ints
		}
		return tokens
	}
	return raw
}
