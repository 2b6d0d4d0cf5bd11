package scaler

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrEmptyRegistry is returned by Resolve when no scalers were loaded.
var ErrEmptyRegistry = errors.New("scaler registry is empty")

// Default symbol decorations stripped during canonicalization.
var (
	DefaultSuffixes = []string{".JK"}
	DefaultPrefixes = []string{"^"}
)

// Resolution describes how a symbol was matched to a registry entry.
type Resolution struct {
	Key          string // registry key whose params were returned
	Requested    string // canonical key derived from the symbol
	FallbackUsed bool
}

// Registry maps canonical symbol keys to scaler params.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	keys     []string
	params   map[string]Params
	suffixes []string
	prefixes []string
}

// Entry is one keyed pair of scalers, in registry order.
type Entry struct {
	Key    string
	Params Params
}

// NewRegistry builds a registry from entries. The first entry is the fallback
// for unmapped symbols. Duplicate keys are rejected.
func NewRegistry(entries []Entry) (*Registry, error) {
	r := &Registry{
		params:   make(map[string]Params, len(entries)),
		suffixes: DefaultSuffixes,
		prefixes: DefaultPrefixes,
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, errors.New("scaler entry with empty key")
		}
		if e.Params.Feature == nil || e.Params.Target == nil {
			return nil, fmt.Errorf("scaler %s: missing feature or target transform", e.Key)
		}
		if _, dup := r.params[e.Key]; dup {
			return nil, fmt.Errorf("duplicate scaler key %q", e.Key)
		}
		r.keys = append(r.keys, e.Key)
		r.params[e.Key] = e.Params
	}
	return r, nil
}

// WithDecorations returns a copy of the registry using the given market
// suffixes and index prefixes for canonicalization.
func (r *Registry) WithDecorations(suffixes, prefixes []string) *Registry {
	cp := *r
	cp.suffixes = suffixes
	cp.prefixes = prefixes
	return &cp
}

// Keys returns registry keys in insertion order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.keys) }

// Canonicalize strips the registry's market suffixes and index prefixes.
func (r *Registry) Canonicalize(symbol string) string {
	return Canonicalize(symbol, r.suffixes, r.prefixes)
}

// Canonicalize strips any of the given suffixes and prefixes from symbol.
func Canonicalize(symbol string, suffixes, prefixes []string) string {
	s := strings.TrimSpace(symbol)
	for _, suf := range suffixes {
		s = strings.TrimSuffix(s, suf)
	}
	for _, pre := range prefixes {
		s = strings.TrimPrefix(s, pre)
	}
	return s
}

// Resolve returns the params for symbol's canonical key. When there is no exact
// match it returns the first registered entry and flags the fallback; the
// forecast then runs with a scaler fit on a different symbol.
func (r *Registry) Resolve(symbol string) (Params, Resolution, error) {
	key := r.Canonicalize(symbol)
	if p, ok := r.params[key]; ok {
		return p, Resolution{Key: key, Requested: key}, nil
	}
	if len(r.keys) == 0 {
		return Params{}, Resolution{Requested: key}, ErrEmptyRegistry
	}
	fb := r.keys[0]
	log.Printf("[WARN] no scaler for %s (key %q), falling back to %q", symbol, key, fb)
	return r.params[fb], Resolution{Key: fb, Requested: key, FallbackUsed: true}, nil
}
