package config

import (
	"regexp"
	"strings"
)

var keySegment = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// KeyPath addresses a value in the raw YAML tree, e.g. "runtime.agent".
type KeyPath []string

// ParseKeyPath splits a dotted key. Segments must start with a letter and
// contain only letters, digits, '_' or '-'.
func ParseKeyPath(raw string) (KeyPath, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config key"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config key " + raw + " has an empty segment"}
		}
		if !keySegment.MatchString(p) {
			return nil, &ConfigError{Message: "config key segment " + p + " is not allowed"}
		}
	}
	return KeyPath(parts), nil
}

func (k KeyPath) String() string { return strings.Join(k, ".") }

// parent walks to the map holding the last segment. With create set, missing
// or non-map intermediates are replaced by empty maps.
func (k KeyPath) parent(root map[string]any, create bool) (map[string]any, bool) {
	cur := root
	for _, seg := range k[:len(k)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			if !create {
				return nil, false
			}
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	return cur, true
}

// Get returns the value at k.
func (k KeyPath) Get(root map[string]any) (any, bool) {
	m, ok := k.parent(root, false)
	if !ok {
		return nil, false
	}
	v, ok := m[k[len(k)-1]]
	return v, ok
}

// Set stores v at k, creating intermediate maps.
func (k KeyPath) Set(root map[string]any, v any) {
	m, _ := k.parent(root, true)
	m[k[len(k)-1]] = v
}

// Unset deletes the value at k and reports whether it existed.
func (k KeyPath) Unset(root map[string]any) bool {
	m, ok := k.parent(root, false)
	if !ok {
		return false
	}
	last := k[len(k)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}
