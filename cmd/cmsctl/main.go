// Command cmsctl inspects and edits a cmskit page tree directly in its
// database file.
//
// Usage:
//
//	cmsctl tree --db ./cmskit.db
//	cmsctl seed --width 3 --depth 2 --items 5
//	cmsctl resolve home/news/first
//	cmsctl move <page-id> <target-id> --position last-child
package main

import (
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/cmskit/cmskit-server/internal/config"
	"github.com/cmskit/cmskit-server/internal/di"
	"github.com/cmskit/cmskit-server/internal/service"
)

var (
	dbPath   string
	noSearch bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "cmsctl",
	Short:        "Inspect and edit a cmskit page tree",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (default: $DATA_PATH/cmskit.db)")
	rootCmd.PersistentFlags().BoolVar(&noSearch, "no-search", false, "Do not open or update the search index")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(treeCmd, resolveCmd, seedCmd, moveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// site holds the services a command works with.
type site struct {
	injector *do.RootScope
	pages    *service.PageService
	router   *service.Router
	items    *service.ItemService
}

// openSite bootstraps the page services against the selected database.
func openSite() (*site, error) {
	args := []string{"-log-level", "error"}
	if verbose {
		args[1] = "debug"
	}
	if dbPath != "" {
		args = append(args, "-db", dbPath)
	}
	if noSearch {
		args = append(args, "-search-enabled", "false")
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, err
	}

	injector := di.NewContainerWithConfig(cfg)
	if err := di.Bootstrap(injector); err != nil {
		_ = injector.Shutdown()
		return nil, err
	}

	return &site{
		injector: injector,
		pages:    do.MustInvoke[*service.PageService](injector),
		router:   do.MustInvoke[*service.Router](injector),
		items:    do.MustInvoke[*service.ItemService](injector),
	}, nil
}

func (s *site) Close() {
	_ = s.injector.Shutdown()
}
