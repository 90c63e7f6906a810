package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

type criteriaFlags struct {
	limit   int
	page    string
	order   string
	filter  []string
	filters string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "l", 0, "number of records per page (1-50)")
	cmd.Flags().StringVarP(&f.page, "page", "p", "", "page number")
	cmd.Flags().StringVarP(&f.order, "order", "o", "", "sort order, e.g. 'name desc' or '-name'")
	cmd.Flags().StringArrayVarP(&f.filter, "filter", "f", nil, "equality filter in key=value form (repeatable)")
	cmd.Flags().StringVar(&f.filters, "filters", "", "filters as a JSON object")
}

// buildFilters merges --filters and --filter values; --filter wins on conflicts.
func (f *criteriaFlags) buildFilters() (map[string]any, error) {
	var filters map[string]any

	if f.filters != "" {
		err := json.Unmarshal([]byte(f.filters), &filters)
		if err != nil {
			return nil, fmt.Errorf("parsing --filters: %w", err)
		}
	}

	for _, pair := range f.filter {
		parts := strings.SplitN(pair, "=", constants.KeyValueSplitParts)
		if len(parts) != constants.KeyValueSplitParts || parts[0] == "" {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidFilterFlag, pair)
		}

		if filters == nil {
			filters = make(map[string]any)
		}

		filters[parts[0]] = parts[1]
	}

	return filters, nil
}

func (f *criteriaFlags) apply(resource *shop.Resource) error {
	if f.limit != 0 {
		err := resource.Limit(f.limit)
		if err != nil {
			return err
		}
	}

	if f.page != "" {
		err := resource.PageString(f.page)
		if err != nil {
			return err
		}
	}

	if f.order != "" {
		err := resource.Order(f.order)
		if err != nil {
			return err
		}
	}

	filters, err := f.buildFilters()
	if err != nil {
		return err
	}

	if filters != nil {
		return resource.Filters(filters)
	}

	return nil
}

func (f *criteriaFlags) pageQuery() (*shop.PageQuery, error) {
	filters, err := f.buildFilters()
	if err != nil {
		return nil, err
	}

	return &shop.PageQuery{Limit: f.limit, Filters: filters, Order: f.order}, nil
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		criteria criteriaFlags
		all      bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "get RESOURCE [ID...]",
		Short: "Get records of a resource",
		Long: `Get a single record by identifier, or a page of a collection.

Examples:
  dcapi get products --limit 10 --order '-product_id'
  dcapi get products --filter producer_id=3 --all
  dcapi get products 42
  dcapi get application-config`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shopClient, err := createShopClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = shopClient.Close() }()

			resource, err := shopClient.Resource(args[0])
			if err != nil {
				return err
			}

			if all {
				query, err := criteria.pageQuery()
				if err != nil {
					return err
				}

				records, err := shop.FetchAllPages(cmd.Context(), resource, query, &shop.PaginationOptions{MaxPages: maxPages})
				if err != nil {
					return err
				}

				return renderResult(cmd, records)
			}

			err = criteria.apply(resource)
			if err != nil {
				return err
			}

			result, err := resource.Get(cmd.Context(), args[1:]...)
			if err != nil {
				return err
			}

			return renderResult(cmd, result)
		},
	}

	criteria.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "stop --all after this many pages")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "create RESOURCE [PATH_ARG...]",
		Short: "Create a record",
		Long: `Create a record from a JSON object and print the result, usually the new identifier.

Examples:
  dcapi create producers --data '{"name":"Acme","web":"https://acme.example"}'
  dcapi create products --data @product.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseData(data)
			if err != nil {
				return err
			}

			shopClient, err := createShopClient(cmd)
			if err != nil {
				return err
			}

			defer func() { _ = shopClient.Close() }()

			resource, err := shopClient.Resource(args[0])
			if err != nil {
				return err
			}

			result, err := resource.Post(cmd.Context(), record, args[1:]...)
			if err != nil {
				return err
			}

			return renderResult(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "record as a JSON object, or @FILE")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "update RESOURCE [ID]",
		Short: "Update a record",
		Long: `Update the record with the given identifier, or a single-entity resource when no identifier is given.

Examples:
  dcapi update producers 3 --data '{"name":"Acme Corp"}'
  dcapi update application-config --data '{"shop_off":0}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := parseData(data)
			if err != nil {
				return err
			}

			return runWrite(cmd, args, "Updated", func(resource *shop.Resource, id string) (bool, error) {
				if id == "" {
					return resource.Put(cmd.Context(), record)
				}

				return resource.PutByID(cmd.Context(), id, record)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "changes as a JSON object, or @FILE")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete RESOURCE [ID]",
		Short: "Delete a record",
		Long:  "Delete the record with the given identifier, or a single-entity resource when no identifier is given.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, args, "Deleted", func(resource *shop.Resource, id string) (bool, error) {
				if id == "" {
					return resource.Delete(cmd.Context())
				}

				return resource.DeleteByID(cmd.Context(), id)
			})
		},
	}
}

func runWrite(cmd *cobra.Command, args []string, action string, write func(*shop.Resource, string) (bool, error)) error {
	shopClient, err := createShopClient(cmd)
	if err != nil {
		return err
	}

	defer func() { _ = shopClient.Close() }()

	resource, err := shopClient.Resource(args[0])
	if err != nil {
		return err
	}

	var id string
	if len(args) > 1 {
		id = args[1]
	}

	ok, err := write(resource, id)
	if err != nil {
		return err
	}

	if outputFormat() != constants.FormatTable {
		return renderResult(cmd, map[string]any{"resource": resource.Name(), "id": id, "success": ok})
	}

	target := resource.Name()
	if id != "" {
		target += " " + id
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", action, target)

	return nil
}

// parseData decodes --data, reading the file when the value starts with '@'.
func parseData(raw string) (*shop.Record, error) {
	if raw == "" {
		return nil, constants.ErrDataRequired
	}

	payload := []byte(raw)

	if path, ok := strings.CutPrefix(raw, "@"); ok {
		if strings.Contains(filepath.ToSlash(path), "../") {
			return nil, fmt.Errorf("%w: %s", constants.ErrDirectoryTraversalDetected, path)
		}

		// path is supplied by the user on the command line
		// #nosec G304
		content, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}

		payload = content
	}

	record := shop.NewRecord()

	err := record.UnmarshalJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidDataObject, err)
	}

	return record, nil
}
