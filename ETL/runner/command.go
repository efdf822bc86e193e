package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LilVoxy/order_analytics/ETL/config"
	"github.com/spf13/cobra"
)

var commandDescriptions = map[Mode]struct{ use, short string }{
	ModePersistent: {"analyze", "Load customers and orders into the SQL store and print the analytics reports"},
	ModeInMemory:   {"analyze-inmemory", "Compute the analytics reports without a database"},
}

// NewCommand builds the root command of an entry point. Flags override the loaded configuration.
func NewCommand(mode Mode) *cobra.Command {
	var (
		format    string
		customers string
		orders    string
	)

	desc := commandDescriptions[mode]
	cmd := &cobra.Command{
		Use:           desc.use,
		Short:         desc.short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Report.Format = format
			}
			if cmd.Flags().Changed("customers") {
				cfg.Input.CustomersPath = customers
			}
			if cmd.Flags().Changed("orders") {
				cfg.Input.OrdersPath = orders
			}
			return Run(cmd.Context(), cfg, mode, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatText, "report format: text or json")
	cmd.Flags().StringVar(&customers, "customers", "", "path of the customer CSV file")
	cmd.Flags().StringVar(&orders, "orders", "", "path of the order XML document")
	return cmd
}

// Main executes the command of mode and exits with status 1 on failure.
func Main(mode Mode) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := NewCommand(mode)
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}
