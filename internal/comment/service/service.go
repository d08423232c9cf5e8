package service

import (
	"context"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/source"
)

type ForestService interface {
	Ingest(ctx context.Context, rootID string, src source.Source) (IngestResult, error)
	Comments(ctx context.Context, rootID string) ([]byte, error)
	Export(ctx context.Context, rootID string, style forest.Style, limit int) (Export, error)
	Path(ctx context.Context, rootID, commentID string) ([]model.CommentPathItem, error)
	Search(ctx context.Context, rootID, q string, page, limit int) (model.SearchPage, error)
	Delete(ctx context.Context, rootID string) error
}

// IngestResult summarises one Ingest call.
type IngestResult struct {
	RunID    string `json:"run_id"`
	RootID   string `json:"root_id"`
	Received int    `json:"received"`
	Seeded   int    `json:"seeded"`
	// Deferred counts comments that arrived before their parent and were
	// seeded once it showed up.
	Deferred   int      `json:"deferred"`
	Unresolved []string `json:"unresolved"`
	Total      int      `json:"total"`
}

// Export is one read-out of a forest. Count is the number of entries in
// Comments after the limit was applied.
type Export struct {
	Style    forest.Style
	Limit    int
	Count    int
	Comments []byte
}
