package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var resolveQuery []string

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a public path and print its render plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		for _, kv := range resolveQuery {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("query %q: expected key=value", kv)
			}
			query.Add(key, value)
		}

		s, err := openSite()
		if err != nil {
			return err
		}
		defer s.Close()

		req, res, err := s.router.Serve(cmd.Context(), args[0], query)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(map[string]any{
			"page":      req.Page,
			"url":       s.router.AbsoluteURL(req.Page.Page),
			"segments":  req.Segments,
			"params":    req.Params,
			"redirect":  res.Redirect,
			"templates": res.Templates,
			"context":   res.Context,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringArrayVarP(&resolveQuery, "query", "q", nil, "Query parameter as key=value (repeatable)")
}
