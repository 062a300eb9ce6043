package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/admindash/internal/listclient"
	"github.com/odyssey-erp/admindash/internal/listing"
	"github.com/odyssey-erp/admindash/internal/products"
	"github.com/odyssey-erp/admindash/internal/tasks"
)

type listFlags struct {
	page     int
	pageSize int
	search   string
	sort     string
	filters  []string
	all      bool
	output   string
}

func (f *listFlags) register(cmd *cobra.Command, filterHelp string) {
	flags := cmd.Flags()
	flags.IntVar(&f.page, "page", 1, "page to show")
	flags.IntVar(&f.pageSize, "page-size", 0, "rows per page (list default when 0)")
	flags.StringVarP(&f.search, "search", "s", "", "case-insensitive search term")
	flags.StringVar(&f.sort, "sort", "", "sort as field[:asc|desc]")
	flags.StringArrayVarP(&f.filters, "filter", "f", nil, "filter as field=value[,value...]; "+filterHelp)
	flags.BoolVar(&f.all, "all", false, "walk every page from --page on")
	flags.StringVarP(&f.output, "output", "o", "table", "output format: table or json")
}

// params renders the flags as the query string a browser would hold.
func (f *listFlags) params(codec listing.Codec) (url.Values, error) {
	values := url.Values{}
	if f.page > 0 {
		values.Set("page", strconv.Itoa(f.page))
	}
	if f.pageSize > 0 {
		values.Set("pageSize", strconv.Itoa(f.pageSize))
	}
	if f.search != "" {
		col, ok := codec.SearchColumn()
		if !ok {
			return nil, errors.New("this list has no search")
		}
		values.Set(col.ParamName(), f.search)
	}
	for _, raw := range f.filters {
		field, value, ok := strings.Cut(raw, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, want field=value", raw)
		}
		col, ok := filterColumn(codec, field)
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", field)
		}
		values.Set(col.ParamName(), value)
	}
	if f.sort != "" {
		field, dir, _ := strings.Cut(f.sort, ":")
		values.Set("sortBy", field)
		if dir != "" {
			if dir != string(listing.Asc) && dir != string(listing.Desc) {
				return nil, fmt.Errorf("invalid sort direction %q", dir)
			}
			values.Set("sortOrder", dir)
		}
	}
	if f.output != "table" && f.output != "json" {
		return nil, fmt.Errorf("unknown output format %q", f.output)
	}
	return values, nil
}

// filterColumn accepts either the column ID or its query parameter name.
func filterColumn(codec listing.Codec, name string) (listing.Column, bool) {
	for _, col := range codec.Columns {
		if col.Mode == listing.MultiSelect && (col.ID == name || col.ParamName() == name) {
			return col, true
		}
	}
	return listing.Column{}, false
}

// listView describes how one resource is requested and printed.
type listView[T any] struct {
	path    string
	codec   listing.Codec
	headers []string
	row     func(T) []string
}

func runList[T any](cmd *cobra.Command, opts *Options, flags *listFlags, view listView[T]) error {
	params, err := flags.params(view.codec)
	if err != nil {
		return err
	}
	client, err := opts.client()
	if err != nil {
		return err
	}
	fetchOpts := listclient.Options{
		Codec:   view.codec,
		Initial: params,
		Logger:  slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	if opts.Verbose {
		fetchOpts.Sync = listclient.URLSyncFunc(func(v url.Values) {
			fmt.Fprintf(cmd.ErrOrStderr(), "GET %s\n", client.URL(view.path, v))
		})
	}
	fetcher := listclient.NewFetcher[T](client, view.path, fetchOpts)
	defer fetcher.Close()

	out := cmd.OutOrStdout()
	fetcher.Start()
	for {
		fetcher.Wait()
		st := fetcher.State()
		if st.Err != "" {
			return errors.New(st.Err)
		}
		q := fetcher.Query()
		if err := printPage(out, flags.output, view, q, st); err != nil {
			return err
		}
		if !flags.all || q.Page >= st.PageCount {
			return nil
		}
		fetcher.SetPage(q.Page + 1)
	}
}

func printPage[T any](w io.Writer, format string, view listView[T], q listing.Query, st listclient.State[T]) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		return enc.Encode(listing.Page[T]{Data: st.Data, PageCount: st.PageCount, RowCount: st.RowCount})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(view.headers, "\t"))
	for _, rec := range st.Data {
		fmt.Fprintln(tw, strings.Join(view.row(rec), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d rows\n", q.Page, st.PageCount, st.RowCount)
	return err
}

func newProductsCommand(opts *Options) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Example: "  listctl products -f availability=in-stock -f price=budget,standard --sort price:desc\n" +
			"  listctl products -s lamp --page-size 50 -o json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts, flags, listView[products.Product]{
				path:    "/api/products",
				codec:   products.Schema().Codec(listing.DefaultPageSize),
				headers: []string{"ID", "NAME", "CATEGORY", "AVAILABILITY", "PRICE", "STOCK"},
				row: func(p products.Product) []string {
					return []string{p.ID, p.Name, p.Category, p.Availability, strconv.FormatFloat(p.Price, 'f', 2, 64), strconv.Itoa(p.Stock)}
				},
			})
		},
	}
	flags.register(cmd, "fields: availability, price, category, name")
	return cmd
}

func newTasksCommand(opts *Options) *cobra.Command {
	flags := &listFlags{}
	cmd := &cobra.Command{
		Use:     "tasks",
		Short:   "List tasks",
		Example: "  listctl tasks -f status=done,canceled --sort priority:desc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts, flags, listView[tasks.Task]{
				path:    "/api/tasks",
				codec:   tasks.Schema().Codec(listing.DefaultPageSize),
				headers: []string{"ID", "TITLE", "STATUS", "PRIORITY", "LABEL"},
				row: func(t tasks.Task) []string {
					return []string{t.ID, t.Title, t.Status, t.Priority, t.Label}
				},
			})
		},
	}
	flags.register(cmd, "fields: status, priority, label")
	return cmd
}
