// Package store defines the persistence interface of the page tree.
package store

import (
	"context"
	"time"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// TypedRow is a page row together with the raw type-specific fields stored
// for it. Data is nil when fields were not requested or none are stored.
type TypedRow struct {
	Page *domain.Page
	Data []byte
}

// PageQuerier reads and writes pages. Path, depth and numchild are only
// changed through the tree specific methods.
type PageQuerier interface {
	GetPage(ctx context.Context, id string) (*domain.Page, error)
	GetPageByPath(ctx context.Context, path string) (*domain.Page, error)
	FindPages(ctx context.Context, q tree.Query) ([]*domain.Page, error)
	CountPages(ctx context.Context, where tree.Predicate) (int, error)

	// FetchTyped loads the rows for ids in one query, joining the stored
	// type-specific fields when withFields is set.
	FetchTyped(ctx context.Context, ids []string, withFields bool) ([]TypedRow, error)

	InsertPage(ctx context.Context, p *domain.Page) error
	// UpdatePage writes every column except path, depth, numchild and parent.
	UpdatePage(ctx context.Context, p *domain.Page) error
	SaveFields(ctx context.Context, pageID, typeTag string, data []byte) error

	// LastChildPath returns the greatest path at depth under parentPath, or
	// "" when there is none. An empty parentPath addresses the roots.
	LastChildPath(ctx context.Context, parentPath string, depth int) (string, error)
	AdjustNumChild(ctx context.Context, id string, delta int) error
	SetParent(ctx context.Context, id, parentID string) error
	// RewritePrefix replaces oldPrefix by newPrefix in every path under
	// (and including) oldPrefix and shifts their depth by depthDelta.
	RewritePrefix(ctx context.Context, oldPrefix, newPrefix string, depthDelta int) (int64, error)
	// DeleteSubtree removes the page at path and every descendant.
	DeleteSubtree(ctx context.Context, path string) (int64, error)
}

// ItemQuery selects items of one page.
type ItemQuery struct {
	PageID      string
	Slug        string
	ActiveOnly  bool
	VisibleOnly bool
	Filters     []string // named filters, see ItemFilter*
	Now         time.Time
	OrderBy     []string // column names, "-" prefix for descending
	Limit       int
	Offset      int
}

// Named item filters.
const (
	ItemFilterDateRequired   = "date_req"
	ItemFilterDateActual     = "date_actual"
	ItemFilterDateActualBoth = "date_actual_both"
	ItemFilterDateAnnounce   = "date_anounce"
)

// ItemQuerier reads and writes items.
type ItemQuerier interface {
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	InsertItem(ctx context.Context, item *domain.Item) error
	UpdateItem(ctx context.Context, item *domain.Item) error
	DeleteItem(ctx context.Context, id string) error
	FindItems(ctx context.Context, q ItemQuery) ([]*domain.Item, error)
	CountItems(ctx context.Context, q ItemQuery) (int, error)
}

// Querier is everything available inside and outside a transaction.
type Querier interface {
	PageQuerier
	ItemQuerier
}

// Store is the persistence boundary of the page tree.
type Store interface {
	Querier

	// InTx runs fn in one write transaction. The transaction takes the
	// database write lock when it begins, so read-modify-write sequences
	// inside fn are serialized with other writers. Any error rolls back.
	InTx(ctx context.Context, fn func(q Querier) error) error

	Close() error
}
