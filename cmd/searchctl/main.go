// searchctl works with search page filters offline: it turns filter values
// into the page URL and the marketplace request, decodes page URLs, and
// queries the geocoder directly.
//
// Usage:
//
//	searchctl derive --searchTerm plumber --budgetBucket 20K_50K --ambient "Dar es Salaam"
//	searchctl parse "?search=plumber&category=c1"
//	searchctl suggest "Dar es"
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/search/geo"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchctl",
		Usage: "Inspect Jinnar search filters and geocoding",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "radius",
				Value:   filters.DefaultRadiusKm,
				Usage:   "Radius in km attached to address filters",
				EnvVars: []string{"SEARCH_RADIUS_KM"},
			},
			&cli.IntFlag{
				Name:    "limit",
				Value:   filters.DefaultLimit,
				Usage:   "Result limit sent to the marketplace",
				EnvVars: []string{"SEARCH_LIMIT"},
			},
		},
		Commands: []*cli.Command{
			deriveCommand(),
			parseCommand(),
			suggestCommand(),
		},
	}
}

type derivedOutput struct {
	URLQuery  string            `json:"url_query"`
	Committed filters.Committed `json:"committed"`
	Query     filters.Query     `json:"query"`
}

func deriveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "ambient", Usage: "Ambient address used when no location is typed"},
	}
	for _, f := range filters.Fields {
		flags = append(flags, &cli.StringFlag{Name: string(f), Usage: fmt.Sprintf("Draft %s value", f)})
	}

	return &cli.Command{
		Name:  "derive",
		Usage: "Commit draft filters and print the page URL and marketplace query",
		Flags: flags,
		Action: func(c *cli.Context) error {
			var d filters.Draft
			for _, f := range filters.Fields {
				if !c.IsSet(string(f)) {
					continue
				}
				next, err := filters.SetField(d, f, c.String(string(f)))
				if err != nil {
					return err
				}
				d = next
			}
			committed, rawQuery := filters.Commit(d)
			return printJSON(c, derivedOutput{
				URLQuery:  rawQuery,
				Committed: committed,
				Query:     filters.DeriveQuery(committed, c.String("ambient"), options(c)),
			})
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Decode a page query string into committed filters",
		ArgsUsage: "<query string>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ambient", Usage: "Ambient address used when no location is typed"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("parse expects exactly one query string", 2)
			}
			committed := filters.ParseRawQuery(c.Args().First())
			_, rawQuery := filters.Commit(committed.Draft())
			return printJSON(c, derivedOutput{
				URLQuery:  rawQuery,
				Committed: committed,
				Query:     filters.DeriveQuery(committed, c.String("ambient"), options(c)),
			})
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Fetch location suggestions for a text fragment",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "geocode-url",
				Value:   "https://us1.locationiq.com/v1",
				Usage:   "Forward geocoder base URL",
				EnvVars: []string{"GEOCODE_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Forward geocoder API key",
				EnvVars: []string{"GEOCODE_API_KEY"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Request timeout",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("suggest expects exactly one text argument", 2)
			}
			client := geo.NewClient(&http.Client{Timeout: c.Duration("timeout")}, c.String("geocode-url"), c.String("api-key"), "")

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()
			suggestions, err := client.Suggest(ctx, c.Args().First())
			if err != nil {
				return err
			}
			return printJSON(c, suggestions)
		},
	}
}

func options(c *cli.Context) filters.Options {
	return filters.Options{RadiusKm: c.Int("radius"), Limit: c.Int("limit")}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
