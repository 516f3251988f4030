package strategy

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// Kind identifies a weight-generation strategy.
type Kind int

const (
	// Uniform draws an independent random weight per neighbor.
	Uniform Kind = iota
	// InDegree weighs a neighbor by its number of incoming transitions.
	InDegree
	// Jaccard weighs a neighbor by the overlap of its out-neighbor set with
	// the source node's out-neighbor set.
	Jaccard
	// Popularity weighs a neighbor by its global share of incoming transitions.
	Popularity
	// Importance weighs a neighbor by its stationary importance score.
	Importance
	// Learned uses the weights stored on the evaluated snapshot.
	Learned
	// External weighs a neighbor by an externally supplied per-node parameter.
	External
)

var kindNames = [...]string{
	Uniform:    "uniform",
	InDegree:   "indegree",
	Jaccard:    "jaccard",
	Popularity: "popularity",
	Importance: "importance",
	Learned:    "learned",
	External:   "external",
}

// Names that older result files use for the same strategies.
var kindAliases = map[string]Kind{
	"random":     Uniform,
	"pagerank":   Importance,
	"prlearn":    Learned,
	"choicerank": External,
}

// All returns every strategy in reporting order.
func All() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the defined strategies.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind parses a strategy name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if s == name {
			return Kind(i), nil
		}
	}
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown strategy %q", s)
}

// ParseKinds parses a list of strategy names, rejecting duplicates.
func ParseKinds(names []string) ([]Kind, error) {
	seen := make(map[Kind]bool, len(names))
	out := make([]Kind, 0, len(names))
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "strategy %q listed twice", n)
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid strategy %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
