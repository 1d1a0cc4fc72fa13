package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmskit/cmskit-server/internal/domain"
)

var movePosition string

var moveCmd = &cobra.Command{
	Use:   "move <page-id> <target-id>",
	Short: "Move a page and its subtree relative to a target page",
	Long: `Move a page and its subtree relative to a target page.

Positions: first-child, last-child, sorted-child, left, right,
first-sibling, last-sibling, sorted-sibling.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos := domain.Position(movePosition)
		if !pos.Valid() {
			return fmt.Errorf("unknown position %q", movePosition)
		}

		s, err := openSite()
		if err != nil {
			return err
		}
		defer s.Close()

		moved, err := s.pages.Move(cmd.Context(), args[0], args[1], pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s (%s)\n", moved.ID, moved.Path, s.router.AbsoluteURL(moved.Page))
		return nil
	},
}

func init() {
	moveCmd.Flags().StringVarP(&movePosition, "position", "p", string(domain.LastChild), "Where the page lands relative to the target")
}
