package model

// CommentPathItem is one hop on the way from the submission down to a comment.
type CommentPathItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Author   string `json:"author"`
}
