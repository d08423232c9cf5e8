package forest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
)

// Style selects how Export lays the comments out.
type Style string

const (
	// Structured is the reply tree: top-level comments with nested replies.
	Structured Style = "structured"
	// Raw is every comment in one flat list, in the order it was seeded.
	Raw Style = "raw"
)

var (
	ErrUnknownStyle = errors.New("unknown export style")
	ErrBadSnapshot  = errors.New("inconsistent forest snapshot")
)

// ParseStyle maps "structured" or "raw" to a Style; an empty name is Structured.
func ParseStyle(name string) (Style, error) {
	switch Style(name) {
	case "", Structured:
		return Structured, nil
	case Raw:
		return Raw, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStyle, name)
}

// Flat returns a copy of every comment in seed order, each with an empty
// reply list.
func (f *Forest) Flat() []model.CommentNode {
	out := make([]model.CommentNode, 0, f.Len())
	for _, s := range f.slots[rootSlot+1:] {
		n := s.node.Clone()
		n.Replies = []model.CommentNode{}
		out = append(out, n)
	}
	return out
}

// Export serializes the forest in the given style and reports how many
// entries the array holds. A positive limit keeps only the first limit
// entries: top-level comments, with their whole subtrees, for Structured and
// single comments for Raw.
func (f *Forest) Export(style Style, limit int) ([]byte, int, error) {
	var items []model.CommentNode
	switch style {
	case Structured:
		items = f.Tree()
	case Raw:
		items = f.Flat()
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if len(items) == 0 {
		return []byte(EmptyComments), 0, nil
	}

	b, err := json.Marshal(items)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal forest %s: %w", f.RootID(), err)
	}
	return b, len(items), nil
}

// Snapshot is the stored form of a forest. Comments are listed in seed
// order; Parent is the index of the parent entry, or -1 for the root.
type Snapshot struct {
	RootID   string          `json:"root_id"`
	Comments []SnapshotEntry `json:"comments"`
}

type SnapshotEntry struct {
	Parent  int               `json:"parent"`
	Comment model.CommentNode `json:"comment"`
}

func (f *Forest) Snapshot() Snapshot {
	entries := make([]SnapshotEntry, 0, f.Len())
	for _, s := range f.slots[rootSlot+1:] {
		// slot i is entry i-1
		entries = append(entries, SnapshotEntry{Parent: s.parent - 1, Comment: s.node.Clone()})
	}
	return Snapshot{RootID: f.RootID(), Comments: entries}
}

// FromSnapshot rebuilds a forest with the same tree and the same seed order.
// Every entry must come after its parent and name it as its parent.
func FromSnapshot(s Snapshot) (*Forest, error) {
	f := New(s.RootID)
	for i, e := range s.Comments {
		if e.Parent < -1 || e.Parent >= i {
			return nil, fmt.Errorf("%w: entry %d has parent %d", ErrBadSnapshot, i, e.Parent)
		}
		parent := e.Parent + 1
		c := e.Comment
		if target := c.TargetID(); target != f.slots[parent].node.ID {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrBadSnapshot, i,
				&OrphanError{CommentID: c.ID, TargetID: target})
		}
		c.Replies = nil
		f.attach(parent, c)
	}
	return f, nil
}
