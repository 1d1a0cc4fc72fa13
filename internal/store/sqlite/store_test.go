package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makePage(id, path, parentID string) *domain.Page {
	p := domain.NewPage("pages.page", "Page "+id, id)
	p.ID = id
	p.Path = path
	p.Depth = len(path) / 4
	p.ParentID = parentID
	p.InitTimestamps()
	return p
}

func insertPages(t *testing.T, s *Store, pages ...*domain.Page) {
	t.Helper()
	for _, p := range pages {
		if err := s.InsertPage(context.Background(), p); err != nil {
			t.Fatalf("insert page %s: %v", p.ID, err)
		}
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.sqlDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.sqlDB.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{"pages", "page_fields", "items"} {
		var name string
		err := s.sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	s2.Close()
}

func TestInsertAndGetPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	urlPath := "home"
	p := makePage("a", "0001", "")
	p.URLPath = &urlPath
	p.Published = true
	p.Active = true
	p.MenuJump = true
	p.URLText = "home"
	insertPages(t, s, p)

	got, err := s.GetPage(ctx, "a")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if got.Path != "0001" || got.Depth != 1 {
		t.Errorf("Path/Depth: got %q/%d, want 0001/1", got.Path, got.Depth)
	}
	if got.URLPath == nil || *got.URLPath != "home" {
		t.Errorf("URLPath: got %v, want home", got.URLPath)
	}
	if !got.Active || !got.Published || !got.MenuJump || !got.MenuIn {
		t.Errorf("flags not round-tripped: %+v", got)
	}
	if got.ParentID != "" {
		t.Errorf("ParentID: got %q, want empty", got.ParentID)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}

	byPath, err := s.GetPageByPath(ctx, "0001")
	if err != nil || byPath.ID != "a" {
		t.Errorf("GetPageByPath: got %v, %v", byPath, err)
	}

	if _, err := s.GetPage(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertPage_DuplicatePath(t *testing.T) {
	s := newTestStore(t)
	insertPages(t, s, makePage("a", "0001", ""))

	err := s.InsertPage(context.Background(), makePage("b", "0001", ""))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdatePage_LeavesTreeColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertPages(t, s, makePage("a", "0001", ""))

	p, _ := s.GetPage(ctx, "a")
	p.Title = "Renamed"
	p.Path = "9999"
	p.NumChild = 42
	if err := s.UpdatePage(ctx, p); err != nil {
		t.Fatalf("update page: %v", err)
	}

	got, _ := s.GetPage(ctx, "a")
	if got.Title != "Renamed" {
		t.Errorf("Title: got %q, want Renamed", got.Title)
	}
	if got.Path != "0001" || got.NumChild != 0 {
		t.Errorf("tree columns changed: path=%q numchild=%d", got.Path, got.NumChild)
	}

	missing := makePage("zz", "0009", "")
	if err := s.UpdatePage(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makePage("a", "0001", "")
	b := makePage("b", "00010001", "a")
	c := makePage("c", "00010002", "a")
	d := makePage("d", "0002", "")
	// Siblings out of path order; parents first for the foreign key.
	insertPages(t, s, d, a, c, b)

	got, err := s.FindPages(ctx, tree.Where(tree.DescendantOf(a, false)))
	if err != nil {
		t.Fatalf("find pages: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("descendants: got %v", ids(got))
	}

	got, err = s.FindPages(ctx, tree.Where(tree.Roots()).OrderBy(tree.ByPathDesc))
	if err != nil {
		t.Fatalf("find roots: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d" {
		t.Errorf("roots desc: got %v", ids(got))
	}

	n, err := s.CountPages(ctx, tree.ChildOf(a))
	if err != nil || n != 2 {
		t.Errorf("CountPages: got %d, %v", n, err)
	}
}

func TestFetchTyped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertPages(t, s, makePage("a", "0001", ""), makePage("b", "0002", ""))

	if err := s.SaveFields(ctx, "a", "items.itempage", []byte(`{"onpage":5}`)); err != nil {
		t.Fatalf("save fields: %v", err)
	}
	if err := s.SaveFields(ctx, "a", "items.itempage", []byte(`{"onpage":7}`)); err != nil {
		t.Fatalf("upsert fields: %v", err)
	}

	rows, err := s.FetchTyped(ctx, []string{"a", "b"}, true)
	if err != nil {
		t.Fatalf("fetch typed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		switch r.Page.ID {
		case "a":
			if string(r.Data) != `{"onpage":7}` {
				t.Errorf("fields of a: got %s", r.Data)
			}
		case "b":
			if r.Data != nil {
				t.Errorf("fields of b: got %s, want nil", r.Data)
			}
		}
	}

	rows, err = s.FetchTyped(ctx, []string{"a"}, false)
	if err != nil || len(rows) != 1 || rows[0].Data != nil {
		t.Errorf("fetch without fields: %v, %v", rows, err)
	}
}

func TestTreeMaintenance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := makePage("a", "0001", "")
	b := makePage("b", "00010001", "a")
	c := makePage("c", "000100010001", "b")
	d := makePage("d", "0002", "")
	insertPages(t, s, a, b, c, d)

	last, err := s.LastChildPath(ctx, "", 1)
	if err != nil || last != "0002" {
		t.Errorf("last root: got %q, %v", last, err)
	}
	last, err = s.LastChildPath(ctx, "0002", 2)
	if err != nil || last != "" {
		t.Errorf("last child of leaf: got %q, %v", last, err)
	}

	if err := s.AdjustNumChild(ctx, "a", 1); err != nil {
		t.Fatalf("adjust numchild: %v", err)
	}
	got, _ := s.GetPage(ctx, "a")
	if got.NumChild != 1 {
		t.Errorf("NumChild: got %d, want 1", got.NumChild)
	}

	// Move b (and c) under d.
	n, err := s.RewritePrefix(ctx, "00010001", "00020001", 0)
	if err != nil || n != 2 {
		t.Fatalf("rewrite prefix: n=%d err=%v", n, err)
	}
	if err := s.SetParent(ctx, "b", "d"); err != nil {
		t.Fatalf("set parent: %v", err)
	}
	moved, _ := s.GetPage(ctx, "c")
	if moved.Path != "000200010001" || moved.Depth != 3 {
		t.Errorf("moved child: got %q/%d", moved.Path, moved.Depth)
	}

	// Promote d's subtree one level deeper under a.
	if _, err := s.RewritePrefix(ctx, "0002", "00010002", 1); err != nil {
		t.Fatalf("rewrite deeper: %v", err)
	}
	deep, _ := s.GetPage(ctx, "c")
	if deep.Path != "0001000200010001" || deep.Depth != 4 {
		t.Errorf("deep child: got %q/%d", deep.Path, deep.Depth)
	}
}

func TestDeleteSubtree_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertPages(t, s, makePage("a", "0001", ""), makePage("b", "00010001", "a"), makePage("c", "0002", ""))
	if err := s.SaveFields(ctx, "b", "pages.page", []byte(`{}`)); err != nil {
		t.Fatalf("save fields: %v", err)
	}
	item := domain.NewItem("b", "Post", "post")
	item.ID = "item-1"
	item.CreatedAt, item.UpdatedAt = time.Now(), time.Now()
	if err := s.InsertItem(ctx, item); err != nil {
		t.Fatalf("insert item: %v", err)
	}

	n, err := s.DeleteSubtree(ctx, "0001")
	if err != nil || n != 2 {
		t.Fatalf("delete subtree: n=%d err=%v", n, err)
	}

	if _, err := s.GetPage(ctx, "b"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("descendant survived: %v", err)
	}
	if _, err := s.GetItem(ctx, "item-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("item survived: %v", err)
	}
	if rows, _ := s.FetchTyped(ctx, []string{"c"}, true); len(rows) != 1 {
		t.Errorf("unrelated page removed")
	}

	if _, err := s.DeleteSubtree(ctx, "0009"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(q store.Querier) error {
		if err := q.InsertPage(ctx, makePage("a", "0001", "")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetPage(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("insert was not rolled back: %v", err)
	}

	err = s.InTx(ctx, func(q store.Querier) error {
		return q.InsertPage(ctx, makePage("b", "0002", ""))
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.GetPage(ctx, "b"); err != nil {
		t.Errorf("committed page missing: %v", err)
	}
}

func ids(pages []*domain.Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.ID
	}
	return out
}
