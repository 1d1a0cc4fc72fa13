package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [page-id]",
	Short: "Print the page tree, or the subtree below a page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSite()
		if err != nil {
			return err
		}
		defer s.Close()

		var root string
		if len(args) == 1 {
			root = args[0]
		}

		pages, err := s.pages.Tree(cmd.Context(), root)
		if err != nil {
			return fmt.Errorf("load tree: %w", err)
		}
		if len(pages) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(empty)")
			return nil
		}

		offset := pages[0].Depth
		for _, p := range pages {
			state := ""
			if !p.Active {
				state = " [inactive]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s  %s  %s (%s)%s\n",
				strings.Repeat("  ", p.Depth-offset),
				p.Path, p.ID, p.Title, p.TypeTag, state)
		}
		return nil
	},
}
