package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/damacus/iron-explorer/internal/explorer"
	"github.com/damacus/iron-explorer/internal/models"
	"github.com/damacus/iron-explorer/internal/store"
)

var (
	lsPageSize int
	lsCursor   string
	lsSort     string
	outputFmt  string
)

var lsCmd = &cobra.Command{
	Use:   "ls <bucket> [prefix]",
	Short: "List one page of a prefix",
	Long: `List one page of folders and files directly under a prefix.

Folders come first. When more entries exist the next cursor is printed;
pass it back with --cursor to continue.

Examples:
  iron-explorer ls photos
  iron-explorer ls photos 2024/ --page-size 50 --sort name-asc
  iron-explorer ls photos 2024/ --cursor eyJ2IjoxLC... --output json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLs,
}

var searchCmd = &cobra.Command{
	Use:   "search <bucket> <query> [prefix]",
	Short: "Find folders and files by name under a prefix",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runSearch,
}

var countCmd = &cobra.Command{
	Use:   "count <bucket> [prefix]",
	Short: "Count folders and files directly under a prefix",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(lsCmd, searchCmd, countCmd)

	lsCmd.Flags().IntVar(&lsPageSize, "page-size", 0, "Entries per page (default listing.page_size)")
	lsCmd.Flags().StringVar(&lsCursor, "cursor", "", "Cursor from a previous page")
	lsCmd.Flags().StringVar(&lsSort, "sort", "", "Sort order (name-asc|name-desc|date-asc|date-desc)")

	for _, c := range []*cobra.Command{lsCmd, searchCmd} {
		c.Flags().StringVarP(&outputFmt, "output", "o", "table", "Output format (table|json)")
	}
}

// cliStore connects with the configured static credentials.
func cliStore(cmd *cobra.Command) (store.Store, error) {
	creds := staticCredentials(cfg)
	if creds == nil {
		return nil, errors.New("storage.access_key and storage.secret_key must be set (IRON_STORAGE_ACCESS_KEY, IRON_STORAGE_SECRET_KEY)")
	}
	return newFactory(cfg, nil).NewStore(cmd.Context(), *creds)
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func runLs(cmd *cobra.Command, args []string) error {
	s, err := cliStore(cmd)
	if err != nil {
		return err
	}
	page, err := newEngine(cfg, logger).ListPage(cmd.Context(), s, explorer.ListRequest{
		Bucket:   args[0],
		Prefix:   optionalArg(args, 1),
		PageSize: lsPageSize,
		Cursor:   lsCursor,
		Sort:     explorer.SortOrder(lsSort),
	})
	if err != nil {
		return err
	}
	return writePage(cmd.OutOrStdout(), page, outputFmt)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := cliStore(cmd)
	if err != nil {
		return err
	}
	page, err := newEngine(cfg, logger).Search(cmd.Context(), s, args[0], optionalArg(args, 2), args[1])
	if err != nil {
		return err
	}
	return writePage(cmd.OutOrStdout(), page, outputFmt)
}

func runCount(cmd *cobra.Command, args []string) error {
	s, err := cliStore(cmd)
	if err != nil {
		return err
	}
	n := newEngine(cfg, logger).Count(cmd.Context(), s, args[0], optionalArg(args, 1))
	_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
	return err
}

func writePage(w io.Writer, page *models.Page, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	case "table":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tMODIFIED\tPUBLIC")
	for _, e := range page.Entries {
		modified, public := "", ""
		if e.LastModified != nil {
			modified = e.LastModified.Format(time.RFC3339)
		}
		if e.IsPublic != nil && *e.IsPublic {
			public = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Kind, e.Name, e.FormattedSize, modified, public)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if page.TotalCount != nil {
		fmt.Fprintf(w, "\n%d entries\n", *page.TotalCount)
	}
	if page.Cursor != "" {
		fmt.Fprintf(w, "next: --cursor %s\n", page.Cursor)
	}
	return nil
}
