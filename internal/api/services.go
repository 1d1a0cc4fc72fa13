package api

import (
	"github.com/cmskit/cmskit-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Pages  *service.PageService
	Router *service.Router
	Items  *service.ItemService
	Menu   *service.MenuService
	Search *service.SearchService // Page search; may be disabled
}
