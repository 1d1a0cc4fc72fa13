package domain

import "time"

// Item is an entry listed by an item page and addressable as
// "<page url>/<item slug>".
type Item struct {
	ID     string `json:"id"`
	PageID string `json:"pageId"`

	Title string `json:"title"`
	Slug  string `json:"slug"`
	URL   string `json:"url,omitempty"` // overrides the item link when set

	Published bool `json:"published"`
	Visible   bool `json:"visible"`
	Active    bool `json:"active"` // published && page.Active

	Weight    int        `json:"weight"`
	DateStart *time.Time `json:"dateStart,omitempty"`
	DateEnd   *time.Time `json:"dateEnd,omitempty"`

	AltTemplate  string `json:"altTemplate,omitempty"`
	AltView      string `json:"altView,omitempty"`
	ShowItemName bool   `json:"showItemName"`
	ShowNodeLink bool   `json:"showNodeLink"`
	ShowInMeta   bool   `json:"showInMeta"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewItem returns an item with the column defaults applied.
func NewItem(pageID, title, slug string) *Item {
	return &Item{
		PageID:       pageID,
		Title:        title,
		Slug:         slug,
		Published:    true,
		Visible:      true,
		Weight:       DefaultMenuWeight,
		ShowItemName: true,
		ShowNodeLink: true,
		ShowInMeta:   true,
	}
}

// ItemPageFields are the type-specific fields of item list pages.
type ItemPageFields struct {
	Filter     string `json:"filter,omitempty"`
	FilterDate string `json:"filterDate,omitempty"`
	OrderBy    string `json:"orderBy,omitempty"`
	OnPage     int    `json:"onpage"`
}

// DefaultOnPage is the page size used when OnPage is out of range.
const DefaultOnPage = 10

// PageSize returns OnPage when it lies in 1..999, else DefaultOnPage.
func (f *ItemPageFields) PageSize() int {
	if f == nil || f.OnPage < 1 || f.OnPage > 999 {
		return DefaultOnPage
	}
	return f.OnPage
}
