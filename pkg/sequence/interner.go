package sequence

import "github.com/matzehuels/nextstep/pkg/graph"

// Interner maps string labels to dense node ids in first-seen order.
type Interner struct {
	ids    map[string]graph.NodeID
	labels []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]graph.NodeID)}
}

// Intern returns the id for label, assigning the next free id if the label
// has not been seen before. The second result reports whether a new id was
// assigned.
func (in *Interner) Intern(label string) (graph.NodeID, bool) {
	if id, ok := in.ids[label]; ok {
		return id, false
	}
	id := graph.NodeID(len(in.labels))
	in.ids[label] = id
	in.labels = append(in.labels, label)
	return id, true
}

// Lookup returns the id of a previously interned label.
func (in *Interner) Lookup(label string) (graph.NodeID, bool) {
	id, ok := in.ids[label]
	return id, ok
}

// Label returns the label for id, or "" if id was never assigned.
func (in *Interner) Label(id graph.NodeID) string {
	if id < 0 || int(id) >= len(in.labels) {
		return ""
	}
	return in.labels[id]
}

// Labels returns all labels indexed by node id.
func (in *Interner) Labels() []string {
	out := make([]string, len(in.labels))
	copy(out, in.labels)
	return out
}

// Len returns the number of interned labels.
func (in *Interner) Len() int { return len(in.labels) }
