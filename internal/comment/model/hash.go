package model

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hash digests every field of n and, recursively, of its replies. Nodes that
// are Equal hash the same. Cost grows with the subtree; key by ID when only
// identity matters.
func (n CommentNode) Hash() uint64 {
	d := xxhash.New()
	n.writeHash(d)
	return d.Sum64()
}

func (n CommentNode) writeHash(d *xxhash.Digest) {
	field := func(s string) {
		_, _ = d.WriteString(strconv.Itoa(len(s)))
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(s)
	}
	boolean := func(b bool) {
		if b {
			field("1")
		} else {
			field("0")
		}
	}

	field(n.Author)
	field(n.Body)
	field(n.BodyHTML)
	field(n.CreatedUTC)
	boolean(n.Distinguished != nil)
	if n.Distinguished != nil {
		field(*n.Distinguished)
	}
	boolean(n.Edited.IsEdited())
	field(n.Edited.Timestamp())
	field(n.ID)
	boolean(n.IsSubmitter)
	field(n.LinkID)
	field(n.ParentID)
	field(strconv.FormatInt(int64(n.Score), 10))
	boolean(n.Stickied)

	field(strconv.Itoa(len(n.Replies)))
	for _, r := range n.Replies {
		r.writeHash(d)
	}
}
