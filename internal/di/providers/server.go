package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/cmskit/cmskit-server/internal/api"
	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/logger"
	"github.com/cmskit/cmskit-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Types must be frozen before the first request.
	_ = do.MustInvoke[*PageTypes](i)

	services := &api.Services{
		Pages:  do.MustInvoke[*service.PageService](i),
		Router: do.MustInvoke[*service.Router](i),
		Items:  do.MustInvoke[*service.ItemService](i),
		Menu:   do.MustInvoke[*service.MenuService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	handler := api.NewServer(services, cfg, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
