package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacentio/rookery/record"
	"github.com/jacentio/rookery/search"
)

func searchCmd() *cobra.Command {
	var (
		entID, envID, devID string
		hints               search.Hints
		fuzzy               bool
		filters             []string
	)

	cmd := &cobra.Command{
		Use:       "search (entities|environments|devices)",
		Short:     "Search one level of the inventory",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"entities", "environments", "devices"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req, err := buildRequest(hints, fuzzy, filters)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			svc, err := newService(ctx, newLogger())
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			var results []record.Record
			switch args[0] {
			case "entities":
				results = svc.SearchEntities(ctx, entID, req)
			case "environments":
				results = svc.SearchEnvironments(ctx, entID, envID, req)
			case "devices":
				results = svc.SearchDevices(ctx, entID, envID, devID, req)
			default:
				return fmt.Errorf("search: unknown level %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&entID, "ent", "", "entity id")
	cmd.Flags().StringVar(&envID, "env", "", "environment id")
	cmd.Flags().StringVar(&devID, "dev", "", "device id")
	cmd.Flags().StringVar(&hints.Tag, "tag", "", "match inside tags")
	cmd.Flags().StringVar(&hints.Port, "port", "", "match inside ports")
	cmd.Flags().StringVar(&hints.Var, "var", "", "match inside vars")
	cmd.Flags().StringVar(&hints.Link, "link", "", "match inside links")
	cmd.Flags().StringVar(&hints.Contact, "contact", "", "match inside contacts")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "case-insensitive substring matching")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "field=value constraint (repeatable)")
	return cmd
}

// buildRequest assembles the request the same way query parameters are parsed.
func buildRequest(hints search.Hints, fuzzy bool, filters []string) (search.Request, error) {
	params := url.Values{}
	for _, f := range filters {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return search.Request{}, fmt.Errorf("invalid filter %q, want field=value", f)
		}
		params.Add(k, v)
	}
	for name, v := range map[string]string{
		search.ParamTag:     hints.Tag,
		search.ParamPort:    hints.Port,
		search.ParamVar:     hints.Var,
		search.ParamLink:    hints.Link,
		search.ParamContact: hints.Contact,
	} {
		if v != "" {
			params.Set(name, v)
		}
	}
	if fuzzy {
		params.Set(search.ParamFuzzy, "true")
	}
	return search.ParseRequest(params), nil
}
