package config

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Section is one [name] block. Option names are case-insensitive and
// every lookup is recorded so leftovers can be reported.
type Section struct {
	name    string
	options map[string]string

	mu   sync.Mutex
	read map[string]bool
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{name: name, options: opts, read: make(map[string]bool)}
}

// Name returns the section name as written in the file.
func (s *Section) Name() string { return s.name }

func (s *Section) lookup(option string) (string, bool) {
	key := strings.ToLower(option)
	s.mu.Lock()
	s.read[key] = true
	s.mu.Unlock()
	v, ok := s.options[key]
	return v, ok
}

// unused returns the sorted options nobody looked up.
func (s *Section) unused() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for opt := range s.options {
		if !s.read[opt] {
			out = append(out, opt)
		}
	}
	sort.Strings(out)
	return out
}

// Get returns a string option, or fallback[0] when it is absent.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.lookup(option); ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", ErrMissingOption(s.name, option)
}

// Bounds limits a numeric option. Nil fields do not apply.
type Bounds struct {
	Min   *float64 // v >= Min
	Max   *float64 // v <= Max
	Above *float64 // v > Above
}

func (b Bounds) check(section, option string, v float64) error {
	switch {
	case b.Min != nil && v < *b.Min:
		return ErrOutOfRange(section, option, v, "must have minimum of "+formatFloat(*b.Min))
	case b.Max != nil && v > *b.Max:
		return ErrOutOfRange(section, option, v, "must have maximum of "+formatFloat(*b.Max))
	case b.Above != nil && v <= *b.Above:
		return ErrOutOfRange(section, option, v, "must be above "+formatFloat(*b.Above))
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Float returns a bounded float option, or fallback[0] when it is
// absent. Fallbacks are not bounds-checked.
func (s *Section) Float(option string, b Bounds, fallback ...float64) (float64, error) {
	raw, ok := s.lookup(option)
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, ErrMissingOption(s.name, option)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, ErrInvalidValue(s.name, option, raw, "float")
	}
	return v, b.check(s.name, option, v)
}

// Int is Float for whole numbers.
func (s *Section) Int(option string, b Bounds, fallback ...int) (int, error) {
	raw, ok := s.lookup(option)
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, ErrMissingOption(s.name, option)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidValue(s.name, option, raw, "integer")
	}
	return v, b.check(s.name, option, float64(v))
}

// Prefixed returns the sorted option names starting with prefix.
func (s *Section) Prefixed(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for opt := range s.options {
		if strings.HasPrefix(opt, prefix) {
			out = append(out, opt)
		}
	}
	sort.Strings(out)
	return out
}
