// Package imports provides commands that pull records into the inventory
// from live sources.
package imports

import (
	"fmt"

	cmdquery "github.com/endorses/routefilter/cmd/query"
	"github.com/endorses/routefilter/internal/pkg/cmdutil"
	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/endorses/routefilter/internal/pkg/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ImportCmd groups the import subcommands
var ImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records into the inventory",
}

var kernelRoutesCmd = &cobra.Command{
	Use:   "kernel-routes",
	Short: "Import gateway routes from the kernel's main routing table",
	Long: `Read gateway routes from the kernel's main routing table and add them
as static routes of one device. Routes the device already has in the global
table are skipped. Without --write the new routes are only printed.

Examples:
  rf import kernel-routes --device "Edge 1"
  rf import kernel-routes --device "Edge 1" --netns blue --write`,
	Args: cobra.NoArgs,
	RunE: runKernelRoutes,
}

var (
	deviceName string
	namespace  string
	write      bool
)

// readKernelRoutes is replaced in tests
var readKernelRoutes = inventory.ReadKernelRoutes

func init() {
	ImportCmd.AddCommand(kernelRoutesCmd)

	kernelRoutesCmd.Flags().StringVar(&deviceName, "device", "", "device the routes are installed on (required)")
	kernelRoutesCmd.Flags().StringVar(&namespace, "netns", "", "read routes from this named network namespace")
	kernelRoutesCmd.Flags().BoolVar(&write, "write", false, "write the new routes to the inventory file (config: import.write)")
	cmdquery.AddFormatFlag(kernelRoutesCmd)

	_ = kernelRoutesCmd.MarkFlagRequired("device")
	_ = viper.BindPFlag("import.netns", kernelRoutesCmd.Flags().Lookup("netns"))
}

func runKernelRoutes(cmd *cobra.Command, args []string) error {
	format, err := cmdquery.Format()
	if err != nil {
		return err
	}

	path := cmdutil.InventoryPath("")
	snap, err := inventory.LoadFile(path)
	if err != nil {
		return err
	}

	routes, err := readKernelRoutes(inventory.KernelOptions{
		Namespace: cmdutil.GetStringConfig("import.netns", namespace),
	})
	if err != nil {
		return err
	}

	next, added, err := inventory.ImportKernelRoutes(snap, deviceName, routes)
	if err != nil {
		return fmt.Errorf("import kernel routes: %w", err)
	}

	logger.Info("kernel routes read",
		"device", deviceName,
		"kernel", len(routes),
		"new", len(added))

	if cmdutil.GetBoolConfig("import.write", write) && len(added) > 0 {
		if err := inventory.SaveFile(path, next); err != nil {
			return err
		}
		logger.Info("inventory updated", "path", path, "added", len(added))
	}

	records := make([]filtering.Record, len(added))
	for i, r := range added {
		records[i] = r
	}
	return output.WriteResult(cmd.OutOrStdout(), format, inventory.KindStaticRoute, records, len(routes), nil, next)
}
