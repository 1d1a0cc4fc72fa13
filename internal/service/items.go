package service

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/id"
	"github.com/cmskit/cmskit-server/internal/pagetype"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/util"
	"github.com/cmskit/cmskit-server/internal/validation"
)

// ItemPageType is the tag of pages listing items.
const ItemPageType = "items.itempage"

// Item page behaviours.
const (
	ItemBehaviourItem = "item"
	ItemBehaviourNode = "node"
)

// defaultItemOrder applies when a page sets no usable order_by keys.
var defaultItemOrder = []string{"-date_start", "-weight", "-id"}

// itemOrderKeys are the order_by keys editors may use.
var itemOrderKeys = map[string]bool{
	"date_start": true,
	"date_end":   true,
	"weight":     true,
	"title":      true,
	"slug":       true,
	"url":        true,
	"id":         true,
}

// ItemService manages the items of item pages and implements the item
// page type.
type ItemService struct {
	store     store.Store
	router    *Router
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewItemService creates a new item service.
func NewItemService(st store.Store, router *Router, logger *slog.Logger) *ItemService {
	return &ItemService{
		store:     st,
		router:    router,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// PageType returns the item page type definition.
func (s *ItemService) PageType() pagetype.Type {
	return pagetype.Type{
		Tag:  ItemPageType,
		Name: "Page with items",
		BehaviourChoices: []pagetype.Choice{
			{Value: ItemBehaviourItem, Label: "always item"},
			{Value: ItemBehaviourNode, Label: "always node"},
		},
		Fields:  pagetype.JSONFields[domain.ItemPageFields](),
		Consume: s.consume,
		Behave:  s.behave,
		OnMoved: s.onMoved,
	}
}

// CreateItemRequest contains fields for creating an item.
type CreateItemRequest struct {
	Title     string     `json:"title" validate:"required,max=2048"`
	Slug      string     `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	URL       string     `json:"url,omitempty" validate:"max=512"`
	Published *bool      `json:"published,omitempty"`
	Visible   *bool      `json:"visible,omitempty"`
	Weight    *int       `json:"weight,omitempty"`
	DateStart *time.Time `json:"dateStart,omitempty"`
	DateEnd   *time.Time `json:"dateEnd,omitempty"`

	AltTemplate  string `json:"altTemplate,omitempty" validate:"max=128"`
	AltView      string `json:"altView,omitempty" validate:"max=128"`
	ShowItemName *bool  `json:"showItemName,omitempty"`
	ShowNodeLink *bool  `json:"showNodeLink,omitempty"`
	ShowInMeta   *bool  `json:"showInMeta,omitempty"`
}

// UpdateItemRequest contains the editable fields of an item. Nil fields
// are left unchanged.
type UpdateItemRequest struct {
	Title     *string    `json:"title,omitempty" validate:"omitempty,min=1,max=2048"`
	Slug      *string    `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	URL       *string    `json:"url,omitempty" validate:"omitempty,max=512"`
	Published *bool      `json:"published,omitempty"`
	Visible   *bool      `json:"visible,omitempty"`
	Weight    *int       `json:"weight,omitempty"`
	DateStart *time.Time `json:"dateStart,omitempty"`
	DateEnd   *time.Time `json:"dateEnd,omitempty"`
	ClearDate bool       `json:"clearDates,omitempty"`

	AltTemplate  *string `json:"altTemplate,omitempty" validate:"omitempty,max=128"`
	AltView      *string `json:"altView,omitempty" validate:"omitempty,max=128"`
	ShowItemName *bool   `json:"showItemName,omitempty"`
	ShowNodeLink *bool   `json:"showNodeLink,omitempty"`
	ShowInMeta   *bool   `json:"showInMeta,omitempty"`
}

// CreateItem adds an item to an item page.
func (s *ItemService) CreateItem(ctx context.Context, pageID string, req CreateItemRequest) (*domain.Item, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	page, err := s.itemPage(ctx, s.store, pageID)
	if err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		if slug = util.Slugify(req.Title); slug == "" {
			return nil, domainerrors.ValidationWithDetails("validation failed: slug",
				map[string]string{"slug": "cannot be derived from the title"})
		}
	}

	it := domain.NewItem(page.ID, req.Title, slug)
	if it.ID, err = id.NewItemID(); err != nil {
		return nil, err
	}
	it.URL = req.URL
	it.DateStart = req.DateStart
	it.DateEnd = req.DateEnd
	it.AltTemplate = req.AltTemplate
	it.AltView = req.AltView
	setBool(&it.Published, req.Published)
	setBool(&it.Visible, req.Visible)
	setBool(&it.ShowItemName, req.ShowItemName)
	setBool(&it.ShowNodeLink, req.ShowNodeLink)
	setBool(&it.ShowInMeta, req.ShowInMeta)
	if req.Weight != nil {
		it.Weight = *req.Weight
	}
	it.Active = it.Published && page.Active
	it.CreatedAt = s.now()
	it.UpdatedAt = it.CreatedAt

	if err := s.store.InsertItem(ctx, it); err != nil {
		return nil, err
	}

	s.logger.Info("item created", "id", it.ID, "page", page.ID, "slug", it.Slug)
	return it, nil
}

// GetItem returns an item by ID.
func (s *ItemService) GetItem(ctx context.Context, itemID string) (*domain.Item, error) {
	it, err := s.store.GetItem(ctx, itemID)
	if domainerrors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("item %s not found", itemID)
	}
	return it, err
}

// UpdateItem applies req to an item and recomputes its active flag.
func (s *ItemService) UpdateItem(ctx context.Context, itemID string, req UpdateItemRequest) (*domain.Item, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	it, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	page, err := getPage(ctx, s.store, it.PageID)
	if err != nil {
		return nil, err
	}

	setString(&it.Title, req.Title)
	setString(&it.Slug, req.Slug)
	setString(&it.URL, req.URL)
	setBool(&it.Published, req.Published)
	setBool(&it.Visible, req.Visible)
	if req.Weight != nil {
		it.Weight = *req.Weight
	}
	if req.ClearDate {
		it.DateStart, it.DateEnd = nil, nil
	}
	if req.DateStart != nil {
		it.DateStart = req.DateStart
	}
	if req.DateEnd != nil {
		it.DateEnd = req.DateEnd
	}
	setString(&it.AltTemplate, req.AltTemplate)
	setString(&it.AltView, req.AltView)
	setBool(&it.ShowItemName, req.ShowItemName)
	setBool(&it.ShowNodeLink, req.ShowNodeLink)
	setBool(&it.ShowInMeta, req.ShowInMeta)

	it.Active = it.Published && page.Active
	it.UpdatedAt = s.now()
	if err := s.store.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// DeleteItem removes an item.
func (s *ItemService) DeleteItem(ctx context.Context, itemID string) error {
	err := s.store.DeleteItem(ctx, itemID)
	if domainerrors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("item %s not found", itemID)
	}
	if err == nil {
		s.logger.Info("item deleted", "id", itemID)
	}
	return err
}

// ListItems returns one page of an item page's items in its configured
// order, including unpublished and hidden ones.
func (s *ItemService) ListItems(ctx context.Context, pageID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	page, err := s.itemPage(ctx, s.store, pageID)
	if err != nil {
		return nil, err
	}
	fields := s.fieldsOf(ctx, page)
	return s.paginate(ctx, store.ItemQuery{PageID: page.ID, OrderBy: orderItemsBy(fields)}, params)
}

// ItemURL returns the public URL of an item: its own url when set,
// otherwise its page's path followed by the item slug.
func (s *ItemService) ItemURL(it *domain.Item, page *domain.Page) string {
	if it.URL != "" {
		return it.URL
	}
	path, _, ok := page.PathOrURL()
	if !ok || path == "" {
		return "/404/"
	}
	return s.router.urlPrefix + path + "/" + it.Slug + "/"
}

func (s *ItemService) consume(ctx context.Context, req *pagetype.Request) (bool, error) {
	if len(req.Segments) != 1 || req.Segments[0] == "" {
		return false, nil
	}
	n, err := s.store.CountItems(ctx, store.ItemQuery{PageID: req.Page.ID, Slug: req.Segments[0]})
	if err != nil || n == 0 {
		return false, err
	}
	req.SetParam("item", req.Segments[0])
	return true, nil
}

func (s *ItemService) behave(ctx context.Context, req *pagetype.Request) (*pagetype.Result, error) {
	p := req.Page

	if p.AltView != "" {
		res, err := s.router.AltView(ctx, req, p.AltView)
		if err != nil || res != nil {
			return res, err
		}
	}

	if p.MenuJump {
		target, err := s.router.JumpTarget(ctx, p.Page)
		if err != nil {
			return nil, err
		}
		if target != nil {
			return &pagetype.Result{Redirect: s.router.AbsoluteURL(target)}, nil
		}
	}

	switch {
	case p.Behaviour == ItemBehaviourNode:
		return s.router.NodeView(req), nil
	case p.Behaviour == ItemBehaviourItem || req.Param("item") != "":
		return s.viewItem(ctx, req)
	default:
		return s.viewList(ctx, req)
	}
}

func (s *ItemService) viewList(ctx context.Context, req *pagetype.Request) (*pagetype.Result, error) {
	p := req.Page
	fields := itemFields(p)

	q := s.publicQuery(p, fields)
	q.VisibleOnly = true
	params := store.PaginationParams{Page: parsePageParam(req.Query.Get("page")), PerPage: fields.PageSize()}
	items, err := s.paginate(ctx, q, params)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(items.Items))
	for _, it := range items.Items {
		urls[it.ID] = s.ItemURL(it, p.Page)
	}

	return &pagetype.Result{
		Templates: s.router.TemplateCandidates("list", p.AltTemplate, p.Type),
		Context: map[string]any{
			"node":      p,
			"pageItem":  items,
			"itemUrls":  urls,
			"urlNoPage": s.router.AbsoluteURL(p.Page),
			"query":     withoutPage(req),
		},
	}, nil
}

func (s *ItemService) viewItem(ctx context.Context, req *pagetype.Request) (*pagetype.Result, error) {
	p := req.Page
	fields := itemFields(p)

	q := s.publicQuery(p, fields)
	if slug := req.Param("item"); slug != "" {
		q.Slug = slug
	} else {
		q.VisibleOnly = true
	}
	q.Limit = 1
	items, err := s.store.FindItems(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domainerrors.NotFoundf("no item on page %s", p.ID)
	}
	it := items[0]

	if it.AltView != "" {
		res, err := s.router.AltView(ctx, req, "item."+it.AltView)
		if err != nil || res != nil {
			return res, err
		}
	}

	altTemplate := it.AltTemplate
	if altTemplate == "" {
		altTemplate = p.AltTemplate
	}
	return &pagetype.Result{
		Templates: s.router.TemplateCandidates("item", altTemplate, p.Type),
		Context: map[string]any{
			"item":    it,
			"itemUrl": s.ItemURL(it, p.Page),
			"node":    p,
			"query":   req.Query.Encode(),
		},
	}, nil
}

// onMoved recomputes the active flag of every item after the page's own
// active flag changed.
func (s *ItemService) onMoved(ctx context.Context, q store.Querier, page *domain.Specific) error {
	items, err := q.FindItems(ctx, store.ItemQuery{PageID: page.ID})
	if err != nil {
		return err
	}
	now := s.now()
	for _, it := range items {
		it.Active = it.Published && page.Active
		it.UpdatedAt = now
		if err := q.UpdateItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// publicQuery selects the active items of p with its filters and ordering.
func (s *ItemService) publicQuery(p *domain.Specific, fields *domain.ItemPageFields) store.ItemQuery {
	q := store.ItemQuery{
		PageID:     p.ID,
		ActiveOnly: true,
		Now:        s.now(),
		OrderBy:    orderItemsBy(fields),
	}
	for _, f := range []string{fields.Filter, fields.FilterDate} {
		if f != "" {
			q.Filters = append(q.Filters, f)
		}
	}
	return q
}

func (s *ItemService) paginate(ctx context.Context, q store.ItemQuery, params store.PaginationParams) (*store.PaginatedResult[*domain.Item], error) {
	total, err := s.store.CountItems(ctx, q)
	if err != nil {
		return nil, err
	}
	page, offset, numPages := params.Resolve(total)
	q.Limit = params.PerPage
	if q.Limit <= 0 {
		q.Limit = domain.DefaultOnPage
	}
	q.Offset = offset

	items, err := s.store.FindItems(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Item{}
	}
	return &store.PaginatedResult[*domain.Item]{
		Items:    items,
		Page:     page,
		NumPages: numPages,
		Total:    total,
		HasNext:  page < numPages,
		HasPrev:  page > 1,
	}, nil
}

func (s *ItemService) itemPage(ctx context.Context, q store.PageQuerier, pageID string) (*domain.Page, error) {
	page, err := getPage(ctx, q, pageID)
	if err != nil {
		return nil, err
	}
	for _, tag := range s.router.registry.TypeAndSubtypes(ItemPageType) {
		if page.TypeTag == tag {
			return page, nil
		}
	}
	return nil, domainerrors.Validationf("page %s does not hold items", pageID)
}

func (s *ItemService) fieldsOf(ctx context.Context, page *domain.Page) *domain.ItemPageFields {
	sp, err := s.router.pages.resolver.ResolveOne(ctx, s.store, s.router.pages.resolver.Generic(page))
	if err != nil {
		s.logger.Warn("loading item page fields", "page", page.ID, "error", err)
		return &domain.ItemPageFields{}
	}
	return itemFields(sp)
}

func itemFields(sp *domain.Specific) *domain.ItemPageFields {
	if f, ok := sp.Fields.(*domain.ItemPageFields); ok && f != nil {
		return f
	}
	return &domain.ItemPageFields{}
}

// orderItemsBy parses the space separated order_by keys of a page,
// keeping only known ones.
func orderItemsBy(fields *domain.ItemPageFields) []string {
	var out []string
	for _, key := range strings.Split(fields.OrderBy, " ") {
		if key == "" {
			continue
		}
		if itemOrderKeys[strings.TrimPrefix(key, "-")] {
			out = append(out, key)
		}
	}
	if len(out) == 0 {
		return defaultItemOrder
	}
	return out
}

// parsePageParam reads the page query parameter: non-numeric values mean
// the first page, numeric ones are clamped later.
func parsePageParam(v string) int {
	if v == "" {
		return 1
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 1
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return math.MaxInt
	}
	return n
}

func withoutPage(req *pagetype.Request) string {
	if req.Query == nil {
		return ""
	}
	q := make(url.Values, len(req.Query))
	for k, v := range req.Query {
		if k != "page" {
			q[k] = v
		}
	}
	return q.Encode()
}
