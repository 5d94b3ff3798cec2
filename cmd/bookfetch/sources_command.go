package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookfetch/internal/source"
	"bookfetch/internal/sources"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "sources",
		Short:       "List supported audiobook sources",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := sources.NewRegistry()
			rows := make([][]string, 0, len(registry.All()))
			for _, src := range registry.All() {
				patterns := make([]string, 0, len(src.Match()))
				for _, re := range src.Match() {
					patterns = append(patterns, re.String())
				}
				rows = append(rows, []string{
					strings.Join(src.Names(), ", "),
					authSummary(src),
					strings.Join(patterns, "\n"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Source", "Auth", "URL patterns"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func authSummary(src source.Source) string {
	if !src.RequiresAuthentication() {
		return "none"
	}
	methods := make([]string, 0, 2)
	if src.SupportsCookies() {
		methods = append(methods, "cookies")
	}
	if src.SupportsLogin() {
		methods = append(methods, "login")
	}
	return strings.Join(methods, ", ")
}
