package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/store"
)

const itemColumns = `id, page_id, title, slug, url, published, visible, active, weight,
	date_start, date_end, alt_template, alt_view,
	show_item_name, show_node_link, show_in_meta, created_at, updated_at`

// itemOrderColumns whitelists the columns items can be ordered by.
var itemOrderColumns = map[string]bool{
	"date_start": true,
	"date_end":   true,
	"weight":     true,
	"title":      true,
	"slug":       true,
	"url":        true,
	"id":         true,
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*domain.Item, error) {
	var it domain.Item

	var (
		published    int
		visible      int
		active       int
		dateStart    sql.NullString
		dateEnd      sql.NullString
		showItemName int
		showNodeLink int
		showInMeta   int
		createdAt    string
		updatedAt    string
	)

	err := scanner.Scan(
		&it.ID, &it.PageID, &it.Title, &it.Slug, &it.URL,
		&published, &visible, &active, &it.Weight,
		&dateStart, &dateEnd, &it.AltTemplate, &it.AltView,
		&showItemName, &showNodeLink, &showInMeta, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if it.DateStart, err = parseNullableTime(dateStart); err != nil {
		return nil, err
	}
	if it.DateEnd, err = parseNullableTime(dateEnd); err != nil {
		return nil, err
	}

	it.Published = published != 0
	it.Visible = visible != 0
	it.Active = active != 0
	it.ShowItemName = showItemName != 0
	it.ShowNodeLink = showNodeLink != 0
	it.ShowInMeta = showInMeta != 0

	return &it, nil
}

// GetItem retrieves an item by ID.
// Returns store.ErrNotFound if the item does not exist.
func (q *queries) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return it, err
}

// InsertItem inserts a new item.
func (q *queries) InsertItem(ctx context.Context, it *domain.Item) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.PageID, it.Title, it.Slug, it.URL,
		boolToInt(it.Published), boolToInt(it.Visible), boolToInt(it.Active), it.Weight,
		nullTimeString(it.DateStart), nullTimeString(it.DateEnd), it.AltTemplate, it.AltView,
		boolToInt(it.ShowItemName), boolToInt(it.ShowNodeLink), boolToInt(it.ShowInMeta),
		formatTime(it.CreatedAt), formatTime(it.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound.WithMessage("page not found")
	}
	return err
}

// UpdateItem writes every column of an item except its page.
func (q *queries) UpdateItem(ctx context.Context, it *domain.Item) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE items SET
			title = ?, slug = ?, url = ?, published = ?, visible = ?, active = ?, weight = ?,
			date_start = ?, date_end = ?, alt_template = ?, alt_view = ?,
			show_item_name = ?, show_node_link = ?, show_in_meta = ?, updated_at = ?
		WHERE id = ?`,
		it.Title, it.Slug, it.URL, boolToInt(it.Published), boolToInt(it.Visible), boolToInt(it.Active), it.Weight,
		nullTimeString(it.DateStart), nullTimeString(it.DateEnd), it.AltTemplate, it.AltView,
		boolToInt(it.ShowItemName), boolToInt(it.ShowNodeLink), boolToInt(it.ShowInMeta), formatTime(it.UpdatedAt),
		it.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(result)
}

// DeleteItem removes an item.
func (q *queries) DeleteItem(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(result)
}

// FindItems lists the items selected by q.
func (q *queries) FindItems(ctx context.Context, iq store.ItemQuery) ([]*domain.Item, error) {
	where, args := itemWhere(iq)

	var b strings.Builder
	b.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE ` + where)
	b.WriteString(itemOrder(iq.OrderBy))
	if iq.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(iq.Limit))
		if iq.Offset > 0 {
			b.WriteString(" OFFSET " + strconv.Itoa(iq.Offset))
		}
	}

	rows, err := q.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems counts the items selected by q, ignoring ordering and limits.
func (q *queries) CountItems(ctx context.Context, iq store.ItemQuery) (int, error) {
	where, args := itemWhere(iq)
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func itemWhere(iq store.ItemQuery) (string, []any) {
	clauses := []string{"page_id = ?"}
	args := []any{iq.PageID}

	if iq.Slug != "" {
		clauses = append(clauses, "slug = ?")
		args = append(args, iq.Slug)
	}
	if iq.ActiveOnly {
		clauses = append(clauses, "active = 1")
	}
	if iq.VisibleOnly {
		clauses = append(clauses, "visible = 1")
	}

	now := formatTime(iq.Now)
	for _, f := range iq.Filters {
		switch f {
		case store.ItemFilterDateRequired:
			clauses = append(clauses, "date_start IS NOT NULL")
		case store.ItemFilterDateActual:
			clauses = append(clauses, "(date_start <= ? OR date_start IS NULL)")
			args = append(args, now)
		case store.ItemFilterDateActualBoth:
			clauses = append(clauses,
				"(date_start <= ? OR date_start IS NULL)",
				"(date_end >= ? OR date_end IS NULL)")
			args = append(args, now, now)
		case store.ItemFilterDateAnnounce:
			clauses = append(clauses, "date_start >= ?")
			args = append(args, now)
		}
	}
	return strings.Join(clauses, " AND "), args
}

func itemOrder(orderBy []string) string {
	terms := make([]string, 0, len(orderBy))
	for _, key := range orderBy {
		dir := "ASC"
		col := key
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			col = key[1:]
		}
		if !itemOrderColumns[col] {
			continue
		}
		terms = append(terms, col+" "+dir)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
