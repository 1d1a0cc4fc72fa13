package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
)

// pageColumns is the ordered list of columns selected in page queries.
// Must match the scan order in scanPage.
const pageColumns = `p.id, p.type_tag, p.parent_id, p.path, p.depth, p.numchild,
	p.title, p.slug, p.slug_path, p.url_path, p.url_text, p.published, p.active,
	p.behaviour, p.base_template, p.alt_template, p.alt_view,
	p.menu_weight, p.menu_title, p.menu_extender, p.menu_in, p.menu_in_chain,
	p.menu_jump, p.menu_login_required, p.menu_show_current,
	p.created_at, p.updated_at`

// scanPage scans a row into a domain.Page. Extra destinations are scanned
// after the page columns.
func scanPage(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Page, error) {
	var p domain.Page

	var (
		parentID          sql.NullString
		urlPath           sql.NullString
		published         int
		active            int
		menuIn            int
		menuInChain       int
		menuJump          int
		menuLoginRequired int
		menuShowCurrent   int
		createdAt         string
		updatedAt         string
	)

	dest := []any{
		&p.ID, &p.TypeTag, &parentID, &p.Path, &p.Depth, &p.NumChild,
		&p.Title, &p.Slug, &p.SlugPath, &urlPath, &p.URLText, &published, &active,
		&p.Behaviour, &p.BaseTemplate, &p.AltTemplate, &p.AltView,
		&p.MenuWeight, &p.MenuTitle, &p.MenuExtender, &menuIn, &menuInChain,
		&menuJump, &menuLoginRequired, &menuShowCurrent,
		&createdAt, &updatedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if parentID.Valid {
		p.ParentID = parentID.String
	}
	if urlPath.Valid {
		v := urlPath.String
		p.URLPath = &v
	}

	p.Published = published != 0
	p.Active = active != 0
	p.MenuIn = menuIn != 0
	p.MenuInChain = menuInChain != 0
	p.MenuJump = menuJump != 0
	p.MenuLoginRequired = menuLoginRequired != 0
	p.MenuShowCurrent = menuShowCurrent != 0

	return &p, nil
}

func (q *queries) getPageWhere(ctx context.Context, where string, arg any) (*domain.Page, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages p WHERE `+where, arg)

	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPage retrieves a page by ID.
// Returns store.ErrNotFound if the page does not exist.
func (q *queries) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	return q.getPageWhere(ctx, "p.id = ?", id)
}

// GetPageByPath retrieves the page stored at a tree path.
// Returns store.ErrNotFound if no page has that path.
func (q *queries) GetPageByPath(ctx context.Context, path string) (*domain.Page, error) {
	return q.getPageWhere(ctx, "p.path = ?", path)
}

// FindPages lists pages matching a tree query.
func (q *queries) FindPages(ctx context.Context, tq tree.Query) ([]*domain.Page, error) {
	tail, args := tq.SQL()
	rows, err := q.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages p`+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("find pages: %w", err)
	}
	defer rows.Close()

	var pages []*domain.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountPages counts pages matching a predicate.
func (q *queries) CountPages(ctx context.Context, where tree.Predicate) (int, error) {
	clause, args := where.SQL()
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages p WHERE `+clause, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// FetchTyped loads the rows for ids in a single query.
func (q *queries) FetchTyped(ctx context.Context, ids []string, withFields bool) ([]store.TypedRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT ` + pageColumns + ` FROM pages p WHERE p.id IN (` + placeholders(len(ids)) + `)`
	if withFields {
		query = `SELECT ` + pageColumns + `, f.data FROM pages p
			LEFT JOIN page_fields f ON f.page_id = p.id
			WHERE p.id IN (` + placeholders(len(ids)) + `)`
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch typed: %w", err)
	}
	defer rows.Close()

	out := make([]store.TypedRow, 0, len(ids))
	for rows.Next() {
		var (
			p    *domain.Page
			data sql.NullString
		)
		if withFields {
			p, err = scanPage(rows, &data)
		} else {
			p, err = scanPage(rows)
		}
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		row := store.TypedRow{Page: p}
		if data.Valid {
			row.Data = []byte(data.String)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InsertPage inserts a new page.
// Returns store.ErrAlreadyExists if the ID or path is taken.
func (q *queries) InsertPage(ctx context.Context, p *domain.Page) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pages (
			id, type_tag, parent_id, path, depth, numchild,
			title, slug, slug_path, url_path, url_text, published, active,
			behaviour, base_template, alt_template, alt_view,
			menu_weight, menu_title, menu_extender, menu_in, menu_in_chain,
			menu_jump, menu_login_required, menu_show_current,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TypeTag, nullString(p.ParentID), p.Path, p.Depth, p.NumChild,
		p.Title, p.Slug, p.SlugPath, nullableString(p.URLPath), p.URLText,
		boolToInt(p.Published), boolToInt(p.Active),
		p.Behaviour, p.BaseTemplate, p.AltTemplate, p.AltView,
		p.MenuWeight, p.MenuTitle, p.MenuExtender, boolToInt(p.MenuIn), boolToInt(p.MenuInChain),
		boolToInt(p.MenuJump), boolToInt(p.MenuLoginRequired), boolToInt(p.MenuShowCurrent),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	return err
}

// UpdatePage writes the caller owned and derived columns of a page.
// Returns store.ErrNotFound if the page does not exist.
func (q *queries) UpdatePage(ctx context.Context, p *domain.Page) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE pages SET
			type_tag = ?, title = ?, slug = ?, slug_path = ?, url_path = ?, url_text = ?,
			published = ?, active = ?,
			behaviour = ?, base_template = ?, alt_template = ?, alt_view = ?,
			menu_weight = ?, menu_title = ?, menu_extender = ?, menu_in = ?, menu_in_chain = ?,
			menu_jump = ?, menu_login_required = ?, menu_show_current = ?,
			updated_at = ?
		WHERE id = ?`,
		p.TypeTag, p.Title, p.Slug, p.SlugPath, nullableString(p.URLPath), p.URLText,
		boolToInt(p.Published), boolToInt(p.Active),
		p.Behaviour, p.BaseTemplate, p.AltTemplate, p.AltView,
		p.MenuWeight, p.MenuTitle, p.MenuExtender, boolToInt(p.MenuIn), boolToInt(p.MenuInChain),
		boolToInt(p.MenuJump), boolToInt(p.MenuLoginRequired), boolToInt(p.MenuShowCurrent),
		formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return requireAffected(result)
}

// SaveFields upserts the type-specific fields of a page.
func (q *queries) SaveFields(ctx context.Context, pageID, typeTag string, data []byte) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO page_fields (page_id, type_tag, data) VALUES (?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET type_tag = excluded.type_tag, data = excluded.data`,
		pageID, typeTag, string(data),
	)
	if err != nil {
		return fmt.Errorf("save fields: %w", err)
	}
	return nil
}

// LastChildPath returns the greatest path at depth under parentPath.
func (q *queries) LastChildPath(ctx context.Context, parentPath string, depth int) (string, error) {
	var path string
	err := q.db.QueryRowContext(ctx, `
		SELECT path FROM pages
		WHERE substr(path, 1, ?) = ? AND depth = ?
		ORDER BY path DESC LIMIT 1`,
		len(parentPath), parentPath, depth,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last child path: %w", err)
	}
	return path, nil
}

// AdjustNumChild adds delta to a page's child count.
func (q *queries) AdjustNumChild(ctx context.Context, id string, delta int) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE pages SET numchild = numchild + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("adjust numchild: %w", err)
	}
	return requireAffected(result)
}

// SetParent updates the parent reference of a page. An empty parentID
// makes it a root.
func (q *queries) SetParent(ctx context.Context, id, parentID string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE pages SET parent_id = ? WHERE id = ?`, nullString(parentID), id)
	if err != nil {
		return fmt.Errorf("set parent: %w", err)
	}
	return requireAffected(result)
}

// RewritePrefix moves a whole subtree to a new path prefix.
func (q *queries) RewritePrefix(ctx context.Context, oldPrefix, newPrefix string, depthDelta int) (int64, error) {
	if oldPrefix == "" {
		return 0, store.ErrInvalidInput.WithMessage("empty path prefix")
	}
	result, err := q.db.ExecContext(ctx, `
		UPDATE pages SET
			path = ? || substr(path, ?),
			depth = depth + ?
		WHERE substr(path, 1, ?) = ?`,
		newPrefix, len(oldPrefix)+1, depthDelta, len(oldPrefix), oldPrefix,
	)
	if isUniqueViolation(err) {
		return 0, store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil {
		return 0, fmt.Errorf("rewrite prefix: %w", err)
	}
	return result.RowsAffected()
}

// DeleteSubtree removes the page at path and all of its descendants.
// Type fields and items go with them through foreign key cascades.
func (q *queries) DeleteSubtree(ctx context.Context, path string) (int64, error) {
	if path == "" {
		return 0, store.ErrInvalidInput.WithMessage("empty path")
	}
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM pages WHERE substr(path, 1, ?) = ?`, len(path), path)
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrNotFound
	}
	return n, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
