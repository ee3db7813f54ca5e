package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propcheck/market"
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List the supported futures contracts",
	Long: `Print the tick economics used to convert prices into ticks and dollars.
Instruments whose symbol is not listed use the default contract.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			headerStyle.Render("Symbol"),
			headerStyle.Render("Point value"),
			headerStyle.Render("Tick size"),
			headerStyle.Render("Tick value"))
		row := func(name string, c market.ContractSpec) {
			fmt.Fprintf(tw, "%s\t%.2f\t%g\t%.2f\n", name, c.PointValue, c.TickSize, c.TickValue)
		}
		for _, c := range market.Catalog() {
			row(c.Symbol, c)
		}
		row(mutedStyle.Render("(default)"), market.Default())
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(contractsCmd)
}
