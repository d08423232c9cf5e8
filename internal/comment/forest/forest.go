// Package forest assembles comment records that arrive in any order into the
// reply tree of a single submission.
//
// A Forest keeps its nodes in an arena: slot 0 is the synthetic submission
// root, every other slot is a comment, and edges are stored as slot indices.
// Nested model.CommentNode values are only built when the tree is read out.
//
// A Forest is not safe for concurrent use. Comment ids must be unique within
// one forest; with duplicates the first node found by the search receives the
// reply, and which node that is may change as the tree grows. The search
// expands each id once, so replies under a later node sharing an id with an
// earlier one are never reached. A comment that reuses the submission id is
// searched like any other.
package forest

import (
	"fmt"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
)

// EmptyComments is what Comments returns while the root has no replies.
const EmptyComments = "[]"

const (
	rootSlot = 0
	noParent = -1
)

type slot struct {
	node     model.CommentNode // Replies is always nil here
	parent   int
	children []int
}

type Forest struct {
	slots []slot

	// trace, when set, is called with every slot a search expands.
	trace func(slot int)
}

// New returns a forest whose synthetic root carries rootID and nothing else.
func New(rootID string) *Forest {
	root := model.CommentNode{
		ID:          rootID,
		Edited:      model.NotEdited(),
		IsSubmitter: true,
	}
	return &Forest{slots: []slot{{node: root, parent: noParent}}}
}

// Restore rebuilds a forest from a tree previously returned by Tree or
// Comments. Each top-level comment is seeded in order and brings its
// replies along.
func Restore(rootID string, comments []model.CommentNode) (*Forest, error) {
	f := New(rootID)
	for _, c := range comments {
		if err := f.Seed(c); err != nil {
			return nil, fmt.Errorf("restore %s: %w", rootID, err)
		}
	}
	return f, nil
}

func (f *Forest) RootID() string { return f.slots[rootSlot].node.ID }

// Len is the number of comments in the forest, root excluded.
func (f *Forest) Len() int { return len(f.slots) - 1 }

// Seed attaches c under the node whose id equals c's target id. Replies that
// c already carries are attached beneath it in order.
//
// When no node matches, Seed returns an *OrphanError and leaves the forest
// untouched; the caller may try the same comment again after its parent has
// been seeded. A carried reply whose target is not the comment holding it is
// reported the same way, before anything is attached.
func (f *Forest) Seed(c model.CommentNode) error {
	if err := checkReplies(c); err != nil {
		return err
	}
	target := c.TargetID()

	parent := rootSlot
	if target != f.RootID() {
		var ok bool
		parent, ok = f.find(target)
		if !ok {
			return &OrphanError{CommentID: c.ID, TargetID: target}
		}
	}

	f.attach(parent, c)
	return nil
}

// checkReplies reports the first carried reply, at any depth, that does not
// name the comment it hangs under as its parent.
func checkReplies(c model.CommentNode) error {
	for _, r := range c.Replies {
		if target := r.TargetID(); target != c.ID {
			return &OrphanError{CommentID: r.ID, TargetID: target}
		}
		if err := checkReplies(r); err != nil {
			return err
		}
	}
	return nil
}

// find walks the tree depth first from the root and returns the slot of the
// first comment whose id is target. The root itself is never a candidate.
// Each id is expanded at most once and the walk stops after len(slots)
// expansions, so it always terminates.
func (f *Forest) find(target string) (int, bool) {
	visited := make(map[string]struct{}, len(f.slots))

	expanded := 0
	stack := []int{rootSlot}
	for len(stack) > 0 && expanded < len(f.slots) {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		expanded++
		if f.trace != nil {
			f.trace(cur)
		}

		for _, ch := range f.slots[cur].children {
			id := f.slots[ch].node.ID
			if id == target {
				return ch, true
			}
			if _, seen := visited[id]; !seen {
				visited[id] = struct{}{}
				stack = append(stack, ch)
			}
		}
	}
	return 0, false
}

func (f *Forest) attach(parent int, c model.CommentNode) {
	replies := c.Replies
	c.Replies = nil

	idx := len(f.slots)
	f.slots = append(f.slots, slot{node: c.Clone(), parent: parent})
	f.slots[parent].children = append(f.slots[parent].children, idx)

	for _, r := range replies {
		f.attach(idx, r)
	}
}

// build materialises the subtree under slot i as nested values.
func (f *Forest) build(i int) model.CommentNode {
	s := f.slots[i]
	out := s.node.Clone()
	out.Replies = make([]model.CommentNode, 0, len(s.children))
	for _, ch := range s.children {
		out.Replies = append(out.Replies, f.build(ch))
	}
	return out
}

// Root returns a copy of the synthetic root with the whole tree below it.
func (f *Forest) Root() model.CommentNode {
	return f.build(rootSlot)
}

// Tree returns a copy of the top-level comments and everything below them.
func (f *Forest) Tree() []model.CommentNode {
	return f.build(rootSlot).Replies
}

// Comments serializes the top-level comments, with nested replies, as a JSON
// array. It returns EmptyComments when nothing has been seeded under the root.
func (f *Forest) Comments() ([]byte, error) {
	b, _, err := f.Export(Structured, 0)
	return b, err
}
