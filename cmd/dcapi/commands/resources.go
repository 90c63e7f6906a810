package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

// ResourceInfo describes a registered resource.
type ResourceInfo struct {
	Name       string `json:"name"        yaml:"name"`
	SingleOnly bool   `json:"single_only" yaml:"single_only"`
}

// NewResourcesCommand creates the resources command.
func NewResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resources",
		Aliases: []string{"res"},
		Short:   "List available resources",
		Long:    "List every resource name the client can address, marking single-entity resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := shop.DefaultRegistry()
			names := registry.Names()

			infos := make([]ResourceInfo, 0, len(names))

			for _, name := range names {
				resource, err := registry.New(nil, name)
				if err != nil {
					return err
				}

				infos = append(infos, ResourceInfo{Name: name, SingleOnly: resource.IsSingleOnly()})
			}

			switch format := outputFormat(); format {
			case constants.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), infos)
			case constants.FormatYAML:
				return writeYAML(cmd.OutOrStdout(), infos)
			case constants.FormatTable:
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Name", "Single")

				for _, info := range infos {
					single := ""
					if info.SingleOnly {
						single = constants.CheckMarkSymbol
					}

					_ = table.Append(info.Name, single)
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			default:
				return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
			}
		},
	}
}
