// Package query provides the query and filters commands.
package query

import (
	"github.com/endorses/routefilter/internal/pkg/cmdutil"
	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/endorses/routefilter/internal/pkg/output"
	"github.com/endorses/routefilter/internal/pkg/routing"
	svc "github.com/endorses/routefilter/internal/pkg/query"
	"github.com/spf13/cobra"
)

var outputFormat string

// QueryCmd runs one filter request against the inventory file
var QueryCmd = &cobra.Command{
	Use:   "query <kind> [name=value...]",
	Short: "Filter inventory records of one kind",
	Long: `Filter inventory records of one kind.

Kinds: static-route, ospf-instance, ospf-area, ospf-interface.
Use "rf filters <kind>" to list the filters a kind accepts. A comma separates
values of one filter; write \, for a literal comma.

Examples:
  rf query static-route prefix=0.0.0.0/0 device="Device 1"
  rf query ospf-area area_id=0,1.1.1.1
  rf query static-route metric__gte=10 --format table
  rf query ospf-instance vrf_id=null`,
	Args:              cobra.MinimumNArgs(1),
	ValidArgsFunction: completeKinds,
	RunE:              runQuery,
}

func init() {
	AddFormatFlag(QueryCmd)
}

// AddFormatFlag adds the --format flag. It overrides output.format.
func AddFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format: json or table")
}

// Format returns the validated output format
func Format() (string, error) {
	return output.ParseFormat(cmdutil.GetStringConfig("output.format", outputFormat))
}

func runQuery(cmd *cobra.Command, args []string) error {
	format, err := Format()
	if err != nil {
		return err
	}

	kind := args[0]
	req, err := cmdutil.ParseFilterArgs(args[1:])
	if err != nil {
		return err
	}

	snap, err := inventory.LoadFile(cmdutil.InventoryPath(""))
	if err != nil {
		return err
	}

	service := svc.NewService(inventory.NewStore(snap), nil)
	res, err := service.Query(cmd.Context(), kind, req)
	if err != nil {
		return err
	}

	return output.WriteResult(cmd.OutOrStdout(), format, res.Kind, res.Records, res.Total, res.Filters, res.Snapshot)
}

func completeKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return routing.Kinds(), cobra.ShellCompDirectiveNoFileComp
}
