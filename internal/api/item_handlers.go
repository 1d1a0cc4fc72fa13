package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cmskit/cmskit-server/internal/domain"
	"github.com/cmskit/cmskit-server/internal/service"
	"github.com/cmskit/cmskit-server/internal/store"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPageItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/pages/{id}/items",
		Summary:     "List items",
		Description: "Returns one page of an item page's items in its configured order",
		Tags:        []string{"Items"},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/pages/{id}/items",
		Summary:       "Create item",
		Description:   "Adds an item to an item page",
		Tags:          []string{"Items"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Description: "Returns an item by ID",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/items/{id}",
		Summary:     "Update item",
		Description: "Updates an item",
		Tags:        []string{"Items"},
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteItem",
		Method:        http.MethodDelete,
		Path:          "/api/v1/items/{id}",
		Summary:       "Delete item",
		Description:   "Deletes an item",
		Tags:          []string{"Items"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteItem)
}

// === DTOs ===

// ItemResponse contains item data in API responses.
type ItemResponse struct {
	ID           string     `json:"id" doc:"Item ID"`
	PageID       string     `json:"pageId" doc:"Owning item page ID"`
	Title        string     `json:"title" doc:"Item title"`
	Slug         string     `json:"slug" doc:"URL segment below the page"`
	URL          string     `json:"url,omitempty" doc:"Link override"`
	Published    bool       `json:"published" doc:"Publication flag"`
	Visible      bool       `json:"visible" doc:"Listed on the page"`
	Active       bool       `json:"active" doc:"Published on an active page"`
	Weight       int        `json:"weight" doc:"Sort weight"`
	DateStart    *time.Time `json:"dateStart,omitempty" doc:"Start date"`
	DateEnd      *time.Time `json:"dateEnd,omitempty" doc:"End date"`
	AltTemplate  string     `json:"altTemplate,omitempty" doc:"Alternative template suffix"`
	AltView      string     `json:"altView,omitempty" doc:"Alternative view name"`
	ShowItemName bool       `json:"showItemName" doc:"Show the item title"`
	ShowNodeLink bool       `json:"showNodeLink" doc:"Link back to the page"`
	ShowInMeta   bool       `json:"showInMeta" doc:"Use in page metadata"`
	CreatedAt    time.Time  `json:"createdAt" doc:"Creation time"`
	UpdatedAt    time.Time  `json:"updatedAt" doc:"Last update time"`
}

// ItemOutput wraps an item response for Huma.
type ItemOutput struct {
	Body ItemResponse
}

// ListItemsInput contains parameters for listing items.
type ListItemsInput struct {
	ID      string `path:"id" doc:"Item page ID"`
	Page    int    `query:"page" default:"1" minimum:"1" doc:"1-based page number; past the end lands on the last page"`
	PerPage int    `query:"perPage" default:"20" minimum:"1" maximum:"200" doc:"Items per page"`
}

// ItemListResponse contains one page of items.
type ItemListResponse struct {
	Items    []ItemResponse `json:"items" doc:"Items on this page"`
	Page     int            `json:"page" doc:"Page number returned"`
	NumPages int            `json:"numPages" doc:"Number of pages"`
	Total    int            `json:"total" doc:"Total items"`
	HasNext  bool           `json:"hasNext" doc:"A later page exists"`
	HasPrev  bool           `json:"hasPrev" doc:"An earlier page exists"`
}

// ItemListOutput wraps the item list for Huma.
type ItemListOutput struct {
	Body ItemListResponse
}

// CreateItemBody is the request body for creating an item.
type CreateItemBody struct {
	Title     string     `json:"title" minLength:"1" maxLength:"2048" doc:"Item title"`
	Slug      string     `json:"slug,omitempty" maxLength:"255" doc:"URL segment; derived from the title when empty"`
	URL       string     `json:"url,omitempty" maxLength:"512" doc:"Link override"`
	Published *bool      `json:"published,omitempty" doc:"Publication flag (default true)"`
	Visible   *bool      `json:"visible,omitempty" doc:"Listed on the page (default true)"`
	Weight    *int       `json:"weight,omitempty" doc:"Sort weight (default 500)"`
	DateStart *time.Time `json:"dateStart,omitempty" doc:"Start date"`
	DateEnd   *time.Time `json:"dateEnd,omitempty" doc:"End date"`

	AltTemplate  string `json:"altTemplate,omitempty" maxLength:"128" doc:"Alternative template suffix"`
	AltView      string `json:"altView,omitempty" maxLength:"128" doc:"Alternative view name"`
	ShowItemName *bool  `json:"showItemName,omitempty" doc:"Show the item title (default true)"`
	ShowNodeLink *bool  `json:"showNodeLink,omitempty" doc:"Link back to the page (default true)"`
	ShowInMeta   *bool  `json:"showInMeta,omitempty" doc:"Use in page metadata (default true)"`
}

// CreateItemInput wraps the create item request for Huma.
type CreateItemInput struct {
	ID   string `path:"id" doc:"Item page ID"`
	Body CreateItemBody
}

// UpdateItemBody is the request body for updating an item. Omitted fields
// are left unchanged.
type UpdateItemBody struct {
	Title      *string    `json:"title,omitempty" doc:"Item title"`
	Slug       *string    `json:"slug,omitempty" doc:"URL segment"`
	URL        *string    `json:"url,omitempty" doc:"Link override"`
	Published  *bool      `json:"published,omitempty" doc:"Publication flag"`
	Visible    *bool      `json:"visible,omitempty" doc:"Listed on the page"`
	Weight     *int       `json:"weight,omitempty" doc:"Sort weight"`
	DateStart  *time.Time `json:"dateStart,omitempty" doc:"Start date"`
	DateEnd    *time.Time `json:"dateEnd,omitempty" doc:"End date"`
	ClearDates bool       `json:"clearDates,omitempty" doc:"Remove both dates before applying new ones"`

	AltTemplate  *string `json:"altTemplate,omitempty" doc:"Alternative template suffix"`
	AltView      *string `json:"altView,omitempty" doc:"Alternative view name"`
	ShowItemName *bool   `json:"showItemName,omitempty" doc:"Show the item title"`
	ShowNodeLink *bool   `json:"showNodeLink,omitempty" doc:"Link back to the page"`
	ShowInMeta   *bool   `json:"showInMeta,omitempty" doc:"Use in page metadata"`
}

// UpdateItemInput wraps the update item request for Huma.
type UpdateItemInput struct {
	ID   string `path:"id" doc:"Item ID"`
	Body UpdateItemBody
}

// ItemIDInput addresses an item by ID.
type ItemIDInput struct {
	ID string `path:"id" doc:"Item ID"`
}

// === Handlers ===

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ItemListOutput, error) {
	res, err := s.services.Items.ListItems(ctx, input.ID, store.PaginationParams{
		Page:    input.Page,
		PerPage: input.PerPage,
	})
	if err != nil {
		return nil, err
	}

	items := make([]ItemResponse, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, toItemResponse(it))
	}
	return &ItemListOutput{Body: ItemListResponse{
		Items:    items,
		Page:     res.Page,
		NumPages: res.NumPages,
		Total:    res.Total,
		HasNext:  res.HasNext,
		HasPrev:  res.HasPrev,
	}}, nil
}

func (s *Server) handleCreateItem(ctx context.Context, input *CreateItemInput) (*ItemOutput, error) {
	b := input.Body
	it, err := s.services.Items.CreateItem(ctx, input.ID, service.CreateItemRequest{
		Title:        b.Title,
		Slug:         b.Slug,
		URL:          b.URL,
		Published:    b.Published,
		Visible:      b.Visible,
		Weight:       b.Weight,
		DateStart:    b.DateStart,
		DateEnd:      b.DateEnd,
		AltTemplate:  b.AltTemplate,
		AltView:      b.AltView,
		ShowItemName: b.ShowItemName,
		ShowNodeLink: b.ShowNodeLink,
		ShowInMeta:   b.ShowInMeta,
	})
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: toItemResponse(it)}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	it, err := s.services.Items.GetItem(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: toItemResponse(it)}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	b := input.Body
	it, err := s.services.Items.UpdateItem(ctx, input.ID, service.UpdateItemRequest{
		Title:        b.Title,
		Slug:         b.Slug,
		URL:          b.URL,
		Published:    b.Published,
		Visible:      b.Visible,
		Weight:       b.Weight,
		DateStart:    b.DateStart,
		DateEnd:      b.DateEnd,
		ClearDate:    b.ClearDates,
		AltTemplate:  b.AltTemplate,
		AltView:      b.AltView,
		ShowItemName: b.ShowItemName,
		ShowNodeLink: b.ShowNodeLink,
		ShowInMeta:   b.ShowInMeta,
	})
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: toItemResponse(it)}, nil
}

func (s *Server) handleDeleteItem(ctx context.Context, input *ItemIDInput) (*struct{}, error) {
	if err := s.services.Items.DeleteItem(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func toItemResponse(it *domain.Item) ItemResponse {
	return ItemResponse{
		ID:           it.ID,
		PageID:       it.PageID,
		Title:        it.Title,
		Slug:         it.Slug,
		URL:          it.URL,
		Published:    it.Published,
		Visible:      it.Visible,
		Active:       it.Active,
		Weight:       it.Weight,
		DateStart:    it.DateStart,
		DateEnd:      it.DateEnd,
		AltTemplate:  it.AltTemplate,
		AltView:      it.AltView,
		ShowItemName: it.ShowItemName,
		ShowNodeLink: it.ShowNodeLink,
		ShowInMeta:   it.ShowInMeta,
		CreatedAt:    it.CreatedAt,
		UpdatedAt:    it.UpdatedAt,
	}
}
