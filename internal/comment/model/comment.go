package model

import (
	"encoding/json"
	"strings"
)

// namespaceSep separates the type prefix from the bare id in ParentID ("t1_abc").
const namespaceSep = "_"

// CommentNode is one comment and the replies already attached to it.
// Every field except Replies is fixed once the node is built.
type CommentNode struct {
	Author        string        `json:"author"`
	Body          string        `json:"body"`
	BodyHTML      string        `json:"body_html"`
	CreatedUTC    string        `json:"created_utc"`
	Distinguished *string       `json:"distinguished"`
	Edited        Edited        `json:"edited"`
	ID            string        `json:"id"`
	IsSubmitter   bool          `json:"is_submitter"`
	LinkID        string        `json:"link_id"`
	ParentID      string        `json:"parent_id"`
	Score         int32         `json:"score"`
	Stickied      bool          `json:"stickied"`
	Replies       []CommentNode `json:"replies"`
}

// ParseCommentNode builds a node from a single source record. Replies present
// in the record are dropped; they are only ever filled in by a forest.
func ParseCommentNode(data []byte) (CommentNode, error) {
	var n CommentNode
	if err := json.Unmarshal(data, &n); err != nil {
		return CommentNode{}, asMalformed(err)
	}
	n.Replies = nil
	return n, nil
}

// TargetID returns the bare id of the parent: the part of ParentID after the
// last namespace separator, or the whole value when there is none.
func (n CommentNode) TargetID() string {
	if i := strings.LastIndex(n.ParentID, namespaceSep); i >= 0 {
		return n.ParentID[i+len(namespaceSep):]
	}
	return n.ParentID
}

// Clone returns a deep copy, replies included.
func (n CommentNode) Clone() CommentNode {
	out := n
	if n.Distinguished != nil {
		d := *n.Distinguished
		out.Distinguished = &d
	}
	if n.Replies != nil {
		out.Replies = make([]CommentNode, len(n.Replies))
		for i, r := range n.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return out
}

// Equal reports whether n and o hold the same data and equal subtrees.
func (n CommentNode) Equal(o CommentNode) bool {
	if n.Author != o.Author ||
		n.Body != o.Body ||
		n.BodyHTML != o.BodyHTML ||
		n.CreatedUTC != o.CreatedUTC ||
		n.Edited != o.Edited ||
		n.ID != o.ID ||
		n.IsSubmitter != o.IsSubmitter ||
		n.LinkID != o.LinkID ||
		n.ParentID != o.ParentID ||
		n.Score != o.Score ||
		n.Stickied != o.Stickied {
		return false
	}
	if (n.Distinguished == nil) != (o.Distinguished == nil) {
		return false
	}
	if n.Distinguished != nil && *n.Distinguished != *o.Distinguished {
		return false
	}
	if len(n.Replies) != len(o.Replies) {
		return false
	}
	for i := range n.Replies {
		if !n.Replies[i].Equal(o.Replies[i]) {
			return false
		}
	}
	return true
}

// wireComment mirrors CommentNode with pointers so that absent keys can be
// told apart from zero values.
type wireComment struct {
	Author        *string       `json:"author"`
	Body          *string       `json:"body"`
	BodyHTML      *string       `json:"body_html"`
	CreatedUTC    *string       `json:"created_utc"`
	Distinguished *string       `json:"distinguished"`
	Edited        *Edited       `json:"edited"`
	ID            *string       `json:"id"`
	IsSubmitter   *bool         `json:"is_submitter"`
	LinkID        *string       `json:"link_id"`
	ParentID      *string       `json:"parent_id"`
	Score         *int32        `json:"score"`
	Stickied      *bool         `json:"stickied"`
	Replies       []CommentNode `json:"replies"`
}

func (n *CommentNode) UnmarshalJSON(data []byte) error {
	var w wireComment
	if err := json.Unmarshal(data, &w); err != nil {
		return asMalformed(err)
	}

	var missing []string
	str := func(name string, p *string) string {
		if p == nil {
			missing = append(missing, name)
			return ""
		}
		return *p
	}
	flag := func(name string, p *bool) bool {
		if p == nil {
			missing = append(missing, name)
			return false
		}
		return *p
	}

	out := CommentNode{
		Author:        str("author", w.Author),
		Body:          str("body", w.Body),
		BodyHTML:      str("body_html", w.BodyHTML),
		CreatedUTC:    str("created_utc", w.CreatedUTC),
		Distinguished: w.Distinguished,
		ID:            str("id", w.ID),
		IsSubmitter:   flag("is_submitter", w.IsSubmitter),
		LinkID:        str("link_id", w.LinkID),
		ParentID:      str("parent_id", w.ParentID),
		Stickied:      flag("stickied", w.Stickied),
		Replies:       w.Replies,
	}
	if w.Edited == nil {
		missing = append(missing, "edited")
	} else {
		out.Edited = *w.Edited
	}
	if w.Score == nil {
		missing = append(missing, "score")
	} else {
		out.Score = *w.Score
	}

	if len(missing) > 0 {
		return &MalformedRecordError{Fields: missing}
	}
	*n = out
	return nil
}
