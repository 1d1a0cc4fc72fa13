package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmskit/cmskit-server/internal/http/response"
)

// SitePage identifies the page that served a site request.
type SitePage struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	LoadedAs string `json:"loadedAs"`
	Title    string `json:"title"`
	URLPath  string `json:"urlPath"`
}

// SiteResponse is the render plan of a public page request: the routed
// page, the template candidates in preference order and the template
// context.
type SiteResponse struct {
	Page      SitePage          `json:"page"`
	Path      string            `json:"path"`
	Segments  []string          `json:"segments,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Templates []string          `json:"templates"`
	Context   map[string]any    `json:"context,omitempty"`
}

// handleSite resolves the path below /site and runs the page behaviour.
// Redirect plans become 302 responses.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "*")

	req, res, err := s.services.Router.Serve(r.Context(), link, r.URL.Query())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}

	response.Success(w, SiteResponse{
		Page: SitePage{
			ID:       req.Page.ID,
			Type:     req.Page.TypeTag,
			LoadedAs: req.Page.Type,
			Title:    req.Page.Title,
			URLPath:  req.Page.URLPathString(),
		},
		Path:      req.Path,
		Segments:  req.Segments,
		Params:    req.Params,
		Templates: res.Templates,
		Context:   res.Context,
	}, s.logger)
}
