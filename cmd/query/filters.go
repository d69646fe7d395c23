package query

import (
	"github.com/endorses/routefilter/internal/pkg/output"
	"github.com/endorses/routefilter/internal/pkg/routing"
	svc "github.com/endorses/routefilter/internal/pkg/query"
	"github.com/spf13/cobra"
)

// FiltersCmd lists the filters a record kind accepts
var FiltersCmd = &cobra.Command{
	Use:               "filters <kind>",
	Short:             "List the filters of a record kind",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeKinds,
	RunE:              runFilters,
}

func init() {
	AddFormatFlag(FiltersCmd)
}

func runFilters(cmd *cobra.Command, args []string) error {
	format, err := Format()
	if err != nil {
		return err
	}

	set, ok := routing.ForKind(args[0])
	if !ok {
		return &svc.UnknownKindError{Kind: args[0]}
	}

	if format == output.FormatTable {
		return output.WriteFilters(cmd.OutOrStdout(), set)
	}
	return output.WriteJSON(cmd.OutOrStdout(), output.NewFilterDocuments(set), output.IsTTY())
}
