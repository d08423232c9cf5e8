package forest

import (
	"errors"
	"fmt"
)

var (
	// ErrOrphanComment is matched by errors for comments whose parent is not
	// in the forest.
	ErrOrphanComment = errors.New("orphan comment")
	// ErrCommentNotFound is returned by lookups for an id that is not in the forest.
	ErrCommentNotFound = errors.New("comment not found")
)

type OrphanError struct {
	CommentID string
	TargetID  string
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("%s: comment %q has no parent %q in the forest", ErrOrphanComment, e.CommentID, e.TargetID)
}

func (e *OrphanError) Is(target error) bool { return target == ErrOrphanComment }
