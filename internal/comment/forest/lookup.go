package forest

import (
	"strings"
	"unicode/utf8"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
)

const snippetRunes = 80

// Path returns the chain of comments from a top-level comment down to id.
func (f *Forest) Path(id string) ([]model.CommentPathItem, error) {
	at, ok := f.find(id)
	if !ok {
		return nil, ErrCommentNotFound
	}

	var items []model.CommentPathItem
	for i := at; i != rootSlot; i = f.slots[i].parent {
		n := f.slots[i].node
		items = append(items, model.CommentPathItem{ID: n.ID, ParentID: n.ParentID, Author: n.Author})
	}
	for l, r := 0, len(items)-1; l < r; l, r = l+1, r-1 {
		items[l], items[r] = items[r], items[l]
	}
	return items, nil
}

// Search lists comments whose body contains q, ignoring case, in tree order.
// page starts at 1; a smaller page reads as 1 and a limit below 1 yields no
// items.
func (f *Forest) Search(q string, page, limit int) model.SearchPage {
	needle := strings.ToLower(q)

	var hits []model.SearchItem
	type frame struct{ slot, depth int }
	stack := []frame{{rootSlot, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.slot != rootSlot {
			n := f.slots[cur.slot].node
			if pos := strings.Index(strings.ToLower(n.Body), needle); pos >= 0 {
				hits = append(hits, model.SearchItem{
					ID:       n.ID,
					ParentID: n.ParentID,
					Author:   n.Author,
					Snippet:  snippet(n.Body, pos),
					Depth:    cur.depth,
				})
			}
		}

		children := f.slots[cur.slot].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], cur.depth + 1})
		}
	}

	if page < 1 {
		page = 1
	}
	total := len(hits)
	start, end := total, total
	if limit > 0 {
		pages := total / limit
		if total%limit != 0 {
			pages++
		}
		if page-1 < pages {
			start = (page - 1) * limit
			end = start + min(limit, total-start)
		}
	}

	return model.SearchPage{
		Items: append([]model.SearchItem{}, hits[start:end]...),
		Page:  page,
		Limit: limit,
		Total: total,
	}
}

// snippet cuts a window of body around the byte offset pos.
func snippet(body string, pos int) string {
	if utf8.RuneCountInString(body) <= snippetRunes {
		return body
	}
	start := pos - snippetRunes/4
	if start < 0 || start >= len(body) {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}

	out := body[start:]
	n := 0
	for i := range out {
		if n == snippetRunes {
			out = out[:i]
			break
		}
		n++
	}
	cut := start+len(out) < len(body)
	if start > 0 {
		out = "…" + out
	}
	if cut {
		out += "…"
	}
	return out
}
