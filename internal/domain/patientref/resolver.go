// Package patientref turns a free-text question into a patient identifier.
package patientref

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// patientIDPattern matches "patient 12", "Patient: 12", "patient#12" or a
// bare number at the start of the text. The leftmost match wins.
var patientIDPattern = regexp.MustCompile(`(?i)(?:patient\s*[:#-]?\s*|^)(\d+)`)

// NameLookup finds a patient id by exact lower-cased name.
type NameLookup interface {
	FindPatientIDByName(ctx context.Context, lowerName string) (int64, bool, error)
}

// Resolver extracts a patient reference from text: an explicit numeric id
// first, then one of the known names.
type Resolver struct {
	lookup NameLookup
	names  []string
}

// NewResolver builds a resolver over the given known names. Names are matched
// case-insensitively; blank entries are ignored.
func NewResolver(lookup NameLookup, names []string) *Resolver {
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			normalized = append(normalized, n)
		}
	}
	return &Resolver{lookup: lookup, names: normalized}
}

// Resolve returns the referenced patient id. ok is false when the text names
// no patient; that is not an error. Store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, text string) (int64, bool, error) {
	if id, ok := MatchID(text); ok {
		return id, true, nil
	}

	lower := strings.ToLower(text)
	for _, name := range r.names {
		if !strings.Contains(lower, name) {
			continue
		}
		id, found, err := r.lookup.FindPatientIDByName(ctx, name)
		if err != nil {
			return 0, false, fmt.Errorf("resolve patient name: %w", err)
		}
		if found {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// MatchID applies the numeric id pattern alone. Tokens that overflow int64
// are treated as no match.
func MatchID(text string) (int64, bool) {
	m := patientIDPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Names returns the configured known names in match order.
func (r *Resolver) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
