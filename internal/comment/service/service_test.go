package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/source"
	inm "github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/inmemory"
)

// fakeRepo wraps inmemory.Repo and counts saves
type fakeRepo struct {
	*inm.Repo
	mu    sync.Mutex
	saves int
}

func (f *fakeRepo) Save(ctx context.Context, rootID string, comments []byte) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return f.Repo.Save(ctx, rootID, comments)
}

func record(id, parentID string) []byte {
	b, _ := json.Marshal(map[string]any{
		"author":        "u_" + id,
		"body":          "body " + id,
		"body_html":     "<p>body " + id + "</p>",
		"created_utc":   "1700000000",
		"distinguished": nil,
		"edited":        false,
		"id":            id,
		"is_submitter":  false,
		"link_id":       "t3_abc123",
		"parent_id":     parentID,
		"score":         3,
		"stickied":      false,
	})
	return b
}

func records(pairs ...string) source.Source {
	var out [][]byte
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, record(pairs[i], pairs[i+1]))
	}
	return source.NewSlice(out)
}

func decodeTree(t *testing.T, b []byte) []model.CommentNode {
	t.Helper()
	var tree []model.CommentNode
	if err := json.Unmarshal(b, &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	return tree
}

func TestIngestScenario(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	res, err := svc.Ingest(ctx, "abc123", records(
		"c1", "t3_abc123",
		"c2", "t1_c1",
		"c3", "t1_zzz",
	))
	if !errors.Is(err, forest.ErrOrphanComment) {
		t.Fatalf("expected ErrOrphanComment, got %v", err)
	}
	var orphan *forest.OrphanError
	if !errors.As(err, &orphan) || orphan.TargetID != "zzz" {
		t.Fatalf("expected orphan error for zzz, got %v", err)
	}
	if res.Seeded != 2 || res.Total != 2 || len(res.Unresolved) != 1 || res.Unresolved[0] != "c3" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RunID == "" {
		t.Fatalf("expected run id")
	}

	b, err := svc.Comments(ctx, "abc123")
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	tree := decodeTree(t, b)
	if len(tree) != 1 || tree[0].ID != "c1" {
		t.Fatalf("expected one top-level c1, got %+v", tree)
	}
	if len(tree[0].Replies) != 1 || tree[0].Replies[0].ID != "c2" {
		t.Fatalf("expected c2 under c1, got %+v", tree[0].Replies)
	}
}

func TestIngestOutOfOrder(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	// grandchildren first, then children, then the top-level comment
	res, err := svc.Ingest(ctx, "abc123", records(
		"d", "t1_c",
		"e", "t1_c",
		"c", "t1_b",
		"b", "t1_a",
		"a", "t3_abc123",
	))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Seeded != 5 || res.Deferred != 4 || len(res.Unresolved) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	path, err := svc.Path(ctx, "abc123", "e")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	got := make([]string, 0, len(path))
	for _, p := range path {
		got = append(got, p.ID)
	}
	if fmt.Sprint(got) != "[a b c e]" {
		t.Fatalf("unexpected path %v", got)
	}

	b, _ := svc.Comments(ctx, "abc123")
	c := decodeTree(t, b)[0].Replies[0].Replies[0]
	if len(c.Replies) != 2 || c.Replies[0].ID != "d" || c.Replies[1].ID != "e" {
		t.Fatalf("expected d, e under c in arrival order, got %+v", c.Replies)
	}
}

func TestIngestMalformedAbortsWithoutSaving(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{Repo: inm.New()}
	svc := New(repo)

	src := source.NewSlice([][]byte{record("a", "t3_abc123"), []byte(`{"id":"b"}`)})
	_, err := svc.Ingest(ctx, "abc123", src)
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, model.ErrMalformedRecord) {
		t.Fatalf("expected invalid input wrapping malformed record, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected nothing saved, got %d saves", repo.saves)
	}
	if _, err := svc.Comments(ctx, "abc123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIngestAppendsToStoredForest(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := svc.Ingest(ctx, "abc123", records("b", "t1_a", "c", "t3_abc123"))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Total != 3 {
		t.Fatalf("expected 3 comments in total, got %d", res.Total)
	}

	b, _ := svc.Comments(ctx, "abc123")
	tree := decodeTree(t, b)
	if len(tree) != 2 || len(tree[0].Replies) != 1 {
		t.Fatalf("unexpected tree %+v", tree)
	}
}

func TestIngestEmptySource(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	res, err := svc.Ingest(ctx, "abc123", records())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Received != 0 {
		t.Fatalf("expected no records, got %d", res.Received)
	}
	b, err := svc.Comments(ctx, "abc123")
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if string(b) != forest.EmptyComments {
		t.Fatalf("expected empty sentinel, got %s", b)
	}
}

func TestRootIDValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	for _, id := range []string{"", "   ", "t3_abc123", string(make([]byte, 65))} {
		if _, err := svc.Ingest(ctx, id, records()); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", id, err)
		}
	}
}

func TestPathAndDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	if _, err := svc.Path(ctx, "abc123", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing forest, got %v", err)
	}
	if err := svc.Delete(ctx, "abc123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}

	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := svc.Path(ctx, "abc123", "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing comment, got %v", err)
	}
	if _, err := svc.Path(ctx, "abc123", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank id, got %v", err)
	}
	if err := svc.Delete(ctx, "abc123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Comments(ctx, "abc123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSearchValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})
	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123", "b", "t1_a")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	cases := []struct {
		q           string
		page, limit int
	}{
		{"   ", 1, 10},
		{"body", 0, 10},
		{"body", 1, 0},
		{"body", 1, 101},
		{"body", 1 << 61, 8},
		{"body", maxSearchPage + 1, 10},
	}
	for _, c := range cases {
		if _, err := svc.Search(ctx, "abc123", c.q, c.page, c.limit); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", c, err)
		}
	}

	sp, err := svc.Search(ctx, "abc123", "BODY b", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sp.Total != 1 || sp.Items[0].ID != "b" || sp.Items[0].Depth != 2 {
		t.Fatalf("unexpected search page %+v", sp)
	}
}

func TestConcurrentIngestSameRoot(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})
	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", i)
			if _, err := svc.Ingest(ctx, "abc123", records(id, "t1_a")); err != nil {
				t.Errorf("Ingest %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	b, _ := svc.Comments(ctx, "abc123")
	tree := decodeTree(t, b)
	if len(tree[0].Replies) != 8 {
		t.Fatalf("expected 8 replies under a, got %d", len(tree[0].Replies))
	}
}

func TestSearchLastPageBeyondHits(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})
	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123", "b", "t1_a")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	sp, err := svc.Search(ctx, "abc123", "body", maxSearchPage, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if sp.Total != 2 || len(sp.Items) != 0 {
		t.Fatalf("expected an empty page over 2 hits, got %+v", sp)
	}
}

func TestExportStylesKeepArrivalOrder(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})

	// two runs against the same forest; b arrives before its parent a
	if _, err := svc.Ingest(ctx, "abc123", records("x", "t3_abc123", "b", "t1_a")); !errors.Is(err, forest.ErrOrphanComment) {
		t.Fatalf("expected b to stay unresolved, got %v", err)
	}
	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123", "c", "t1_x")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	exp, err := svc.Export(ctx, "abc123", forest.Raw, 0)
	if err != nil {
		t.Fatalf("Export raw: %v", err)
	}
	got := make([]string, 0, exp.Count)
	for _, n := range decodeTree(t, exp.Comments) {
		got = append(got, n.ID)
	}
	if exp.Style != forest.Raw || exp.Count != 3 || fmt.Sprint(got) != "[x a c]" {
		t.Fatalf("unexpected raw export %+v: %v", exp, got)
	}

	exp, err = svc.Export(ctx, "abc123", forest.Raw, 2)
	if err != nil || exp.Count != 2 {
		t.Fatalf("expected 2 raw entries, got %+v, %v", exp, err)
	}

	exp, err = svc.Export(ctx, "abc123", "", 1)
	if err != nil {
		t.Fatalf("Export structured: %v", err)
	}
	tree := decodeTree(t, exp.Comments)
	if exp.Style != forest.Structured || exp.Count != 1 || len(tree) != 1 || tree[0].ID != "x" || len(tree[0].Replies) != 1 {
		t.Fatalf("unexpected structured export %+v: %+v", exp, tree)
	}
}

func TestExportValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(&fakeRepo{Repo: inm.New()})
	if _, err := svc.Ingest(ctx, "abc123", records("a", "t3_abc123")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if _, err := svc.Export(ctx, "abc123", forest.Raw, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative limit, got %v", err)
	}
	if _, err := svc.Export(ctx, "abc123", "flat", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown style, got %v", err)
	}
	if _, err := svc.Export(ctx, "zzz", forest.Raw, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadsStoredTree(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{Repo: inm.New()}
	svc := New(repo)

	tree := `[` + nest(record("a", "t3_abc123"), record("b", "t1_a")) + `]`
	if err := repo.Save(ctx, "abc123", []byte(tree)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := svc.Ingest(ctx, "abc123", records("c", "t1_b")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	path, err := svc.Path(ctx, "abc123", "c")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if len(path) != 3 || path[0].ID != "a" || path[1].ID != "b" {
		t.Fatalf("unexpected path %+v", path)
	}
}

// nest puts child into parent's replies.
func nest(parent, child []byte) string {
	var p map[string]any
	_ = json.Unmarshal(parent, &p)
	p["replies"] = []json.RawMessage{child}
	b, _ := json.Marshal(p)
	return string(b)
}
