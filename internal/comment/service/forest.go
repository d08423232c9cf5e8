package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/source"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	maxRootIDLen  = 64
	maxSearchPage = 1 << 20
)

type forestService struct {
	repo  storage.Repository
	locks *rootLocks
}

func New(repo storage.Repository) ForestService {
	return &forestService{repo: repo, locks: newRootLocks()}
}

// Ingest seeds every record of src into the stored forest of rootID, or a
// new one. Comments that arrive before their parent wait in a queue and are
// seeded as soon as the parent lands. A malformed record aborts the run and
// nothing is saved. Comments still waiting at the end are listed in the
// result and reported as a joined error matching forest.ErrOrphanComment;
// the rest of the tree is saved regardless.
func (s *forestService) Ingest(ctx context.Context, rootID string, src source.Source) (IngestResult, error) {
	if err := validateRootID(rootID); err != nil {
		return IngestResult{}, err
	}

	unlock := s.locks.lock(rootID)
	defer unlock()

	f, err := s.load(ctx, rootID)
	if errors.Is(err, ErrNotFound) {
		f, err = forest.New(rootID), nil
	}
	if err != nil {
		return IngestResult{}, err
	}

	res := IngestResult{RunID: uuid.NewString(), RootID: rootID, Unresolved: []string{}}
	log := zlog.Logger.With().Str("run_id", res.RunID).Str("root_id", rootID).Logger()

	q := newOrphanQueue()
	for i := 0; ; i++ {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read record %d: %w", i, err)
		}
		res.Received++

		c, err := model.ParseCommentNode(rec)
		if err != nil {
			log.Warn().Err(err).Int("record", i).Msg("rejecting malformed record")
			return res, fmt.Errorf("%w: record %d: %w", ErrInvalidInput, i, err)
		}
		if err := plant(f, q, c, &res); err != nil {
			return res, err
		}
	}

	orphans := q.remaining()
	for _, o := range orphans {
		res.Unresolved = append(res.Unresolved, o.CommentID)
	}
	res.Total = f.Len()

	out, err := json.Marshal(f.Snapshot())
	if err != nil {
		return res, fmt.Errorf("encode forest %s: %w", rootID, err)
	}
	if err := s.repo.Save(ctx, rootID, out); err != nil {
		return res, fmt.Errorf("save forest %s: %w", rootID, err)
	}

	log.Info().
		Int("received", res.Received).
		Int("seeded", res.Seeded).
		Int("deferred", res.Deferred).
		Int("unresolved", len(orphans)).
		Int("total", res.Total).
		Msg("forest ingested")

	if len(orphans) > 0 {
		errs := make([]error, len(orphans))
		for i, o := range orphans {
			errs[i] = o
		}
		return res, fmt.Errorf("%d comment(s) left without a parent: %w", len(orphans), errors.Join(errs...))
	}
	return res, nil
}

// plant seeds c, or parks it when its parent is missing, and then seeds
// every parked comment that was waiting on c or on one of its descendants.
func plant(f *forest.Forest, q *orphanQueue, c model.CommentNode, res *IngestResult) error {
	err := f.Seed(c)
	if errors.Is(err, forest.ErrOrphanComment) {
		q.park(c)
		return nil
	}
	if err != nil {
		return err
	}
	res.Seeded++

	ready := q.release(c.ID)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		if err := f.Seed(next); err != nil {
			return fmt.Errorf("seed deferred comment %s: %w", next.ID, err)
		}
		res.Seeded++
		res.Deferred++
		ready = append(ready, q.release(next.ID)...)
	}
	return nil
}

func (s *forestService) Comments(ctx context.Context, rootID string) ([]byte, error) {
	exp, err := s.Export(ctx, rootID, forest.Structured, 0)
	if err != nil {
		return nil, err
	}
	return exp.Comments, nil
}

// Export reads the stored forest in the given style. A limit of 0 keeps
// every entry.
func (s *forestService) Export(ctx context.Context, rootID string, style forest.Style, limit int) (Export, error) {
	if limit < 0 {
		return Export{}, ErrInvalidInput
	}
	style, err := forest.ParseStyle(string(style))
	if err != nil {
		return Export{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	f, err := s.load(ctx, rootID)
	if err != nil {
		return Export{}, err
	}
	b, n, err := f.Export(style, limit)
	if err != nil {
		return Export{}, err
	}
	return Export{Style: style, Limit: limit, Count: n, Comments: b}, nil
}

func (s *forestService) Path(ctx context.Context, rootID, commentID string) ([]model.CommentPathItem, error) {
	if strings.TrimSpace(commentID) == "" {
		return nil, ErrInvalidInput
	}
	f, err := s.load(ctx, rootID)
	if err != nil {
		return nil, err
	}
	items, err := f.Path(commentID)
	if errors.Is(err, forest.ErrCommentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *forestService) Search(ctx context.Context, rootID, q string, page, limit int) (model.SearchPage, error) {
	if strings.TrimSpace(q) == "" {
		return model.SearchPage{}, ErrInvalidInput
	}
	if page <= 0 || page > maxSearchPage || limit <= 0 || limit > 100 {
		return model.SearchPage{}, ErrInvalidInput
	}
	f, err := s.load(ctx, rootID)
	if err != nil {
		return model.SearchPage{}, err
	}
	return f.Search(q, page, limit), nil
}

func (s *forestService) Delete(ctx context.Context, rootID string) error {
	if err := validateRootID(rootID); err != nil {
		return err
	}

	unlock := s.locks.lock(rootID)
	defer unlock()

	deleted, err := s.repo.Delete(ctx, rootID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// load rebuilds the stored forest of rootID.
func (s *forestService) load(ctx context.Context, rootID string) (*forest.Forest, error) {
	if err := validateRootID(rootID); err != nil {
		return nil, err
	}
	b, err := s.repo.Load(ctx, rootID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// a bare JSON array is a tree written by Comments, without seed order
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		var tree []model.CommentNode
		if err := json.Unmarshal(trimmed, &tree); err != nil {
			return nil, fmt.Errorf("decode stored forest %s: %w", rootID, err)
		}
		return forest.Restore(rootID, tree)
	}

	var snap forest.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode stored forest %s: %w", rootID, err)
	}
	if snap.RootID != rootID {
		return nil, fmt.Errorf("%w: stored under %s but rooted at %s", forest.ErrBadSnapshot, rootID, snap.RootID)
	}
	return forest.FromSnapshot(snap)
}

// validateRootID accepts bare submission ids only; a namespaced id such as
// "t3_abc" would never match a comment's target.
func validateRootID(rootID string) error {
	if strings.TrimSpace(rootID) == "" || len(rootID) > maxRootIDLen || strings.Contains(rootID, "_") {
		return ErrInvalidInput
	}
	return nil
}

// rootLocks serialises writers per submission; a Forest has a single writer.
type rootLocks struct {
	mu    sync.Mutex
	locks map[string]*rootLock
}

type rootLock struct {
	sync.Mutex
	refs int
}

func newRootLocks() *rootLocks {
	return &rootLocks{locks: make(map[string]*rootLock)}
}

func (l *rootLocks) lock(rootID string) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.locks[rootID]
	if !ok {
		rl = &rootLock{}
		l.locks[rootID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.Lock()
	return func() {
		rl.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, rootID)
		}
		l.mu.Unlock()
	}
}
