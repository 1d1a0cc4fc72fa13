package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmskit/cmskit-server/internal/service"
)

var (
	seedWidth int
	seedDepth int
	seedItems int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a sample site with nested sections and an item page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedWidth < 1 || seedDepth < 0 || seedItems < 0 {
			return fmt.Errorf("width must be positive, depth and items not negative")
		}

		s, err := openSite()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		base := s.pages.BaseType()

		home, err := s.pages.AddRoot(ctx, service.CreatePageRequest{Type: base, Title: "Home", Published: true})
		if err != nil {
			return fmt.Errorf("create home: %w", err)
		}
		created := 1

		n, err := seedSections(ctx, s.pages, home.ID, base, "", seedDepth)
		created += n
		if err != nil {
			return err
		}

		news, err := s.pages.AddChild(ctx, home.ID, service.CreatePageRequest{
			Type:      service.ItemPageType,
			Title:     "News",
			Published: true,
			Fields:    map[string]any{"onpage": 10, "orderBy": "weight"},
		})
		if err != nil {
			return fmt.Errorf("create item page: %w", err)
		}
		created++

		for i := 1; i <= seedItems; i++ {
			weight := i
			if _, err := s.items.CreateItem(ctx, news.ID, service.CreateItemRequest{
				Title:  fmt.Sprintf("Story %d", i),
				Weight: &weight,
			}); err != nil {
				return fmt.Errorf("create item %d: %w", i, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d pages and %d items below %s (%s)\n",
			created, seedItems, home.ID, s.router.AbsoluteURL(home.Page))
		return nil
	},
}

// seedSections adds seedWidth children numbered "1.2.3" style below
// parentID and recurses until depth runs out. It returns the number of pages created.
func seedSections(ctx context.Context, pages *service.PageService, parentID, typeTag, prefix string, depth int) (int, error) {
	if depth == 0 {
		return 0, nil
	}
	created := 0
	for i := 1; i <= seedWidth; i++ {
		number := fmt.Sprintf("%s%d", prefix, i)
		title := "Section " + number
		child, err := pages.AddChild(ctx, parentID, service.CreatePageRequest{Type: typeTag, Title: title, Published: true})
		if err != nil {
			return created, fmt.Errorf("create %q: %w", title, err)
		}
		created++

		n, err := seedSections(ctx, pages, child.ID, typeTag, number+".", depth-1)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func init() {
	seedCmd.Flags().IntVar(&seedWidth, "width", 3, "Children per section")
	seedCmd.Flags().IntVar(&seedDepth, "depth", 2, "Levels of sections below the home page")
	seedCmd.Flags().IntVar(&seedItems, "items", 5, "Items on the news page")
}
