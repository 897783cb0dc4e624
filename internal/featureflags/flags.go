// Package featureflags evaluates FEATURE_FLAGS rules such as
// "impersonation=on,feed_batching=25%".
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Impersonation allows signing in by user ID without credentials.
const Impersonation = "impersonation"

type rule struct {
	text    string
	percent int // 0 = off, 100 = on
}

// Set is an immutable collection of flag rules. A nil Set has every flag off.
type Set struct {
	rules map[string]rule
}

// State is one flag evaluated for a viewer.
type State struct {
	Name    string `json:"name"`
	Rule    string `json:"rule"`
	Enabled bool   `json:"enabled"`
}

// Load parses raw and layers it over defaults. Entries in raw win.
func Load(raw string, defaults map[string]string) (*Set, error) {
	s := &Set{rules: make(map[string]rule, len(defaults))}
	for name, text := range defaults {
		r, err := parseRule(text)
		if err != nil {
			return nil, fmt.Errorf("default flag %s: %w", name, err)
		}
		s.rules[key(name)] = r
	}

	var bad []string
	for _, entry := range strings.Split(raw, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		name, text, ok := strings.Cut(entry, "=")
		if !ok || key(name) == "" {
			bad = append(bad, strings.TrimSpace(entry))
			continue
		}
		r, err := parseRule(text)
		if err != nil {
			bad = append(bad, strings.TrimSpace(entry))
			continue
		}
		s.rules[key(name)] = r
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("invalid FEATURE_FLAGS entries: %s", strings.Join(bad, ", "))
	}
	return s, nil
}

func parseRule(text string) (rule, error) {
	text = key(text)
	switch text {
	case "on", "true", "1", "yes":
		return rule{text: text, percent: 100}, nil
	case "off", "false", "0", "no":
		return rule{text: text}, nil
	}
	if pct, ok := strings.CutSuffix(text, "%"); ok {
		n, err := strconv.Atoi(pct)
		if err == nil && n >= 0 && n <= 100 {
			return rule{text: text, percent: n}, nil
		}
	}
	return rule{}, fmt.Errorf("unrecognised rule %q", text)
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Enabled reports whether name is on for userID. Partial rollouts pick a
// stable bucket per user and are off for anonymous viewers.
func (s *Set) Enabled(name, userID string) bool {
	if s == nil {
		return false
	}
	r, ok := s.rules[key(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == "":
		return false
	}
	return bucket(key(name), userID) < r.percent
}

// Evaluate returns every configured flag for userID, sorted by name.
func (s *Set) Evaluate(userID string) []State {
	if s == nil {
		return []State{}
	}
	out := make([]State, 0, len(s.rules))
	for name, r := range s.rules {
		out = append(out, State{Name: name, Rule: r.text, Enabled: s.Enabled(name, userID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func bucket(name, userID string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(userID))
	return int(h.Sum64() % 100)
}
