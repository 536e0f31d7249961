package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/ui"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Market prices",
}

var (
	pricesListProduct string
	pricesListMarket  string
)

var pricesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached market prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var list []model.MarketPrice
		var err error
		switch {
		case pricesListProduct != "":
			list, err = markets.PricesByProduct(ctx, pricesListProduct)
		case pricesListMarket != "":
			list, err = markets.PricesByMarket(ctx, pricesListMarket)
		default:
			list, err = markets.Prices(ctx)
		}
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No prices cached. Run `klimat prices refresh` when online.")
			return nil
		}
		printPrices(list)

		if updated, err := markets.PricesLastUpdated(ctx); err == nil && !updated.IsZero() {
			fmt.Printf("\nLast updated %s\n", updated.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var pricesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Pull fresh prices from the data service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !probe(ctx) {
			return fmt.Errorf("%w: %s", remote.ErrOffline, cfg.ServerURL)
		}
		fresh, err := client.Prices(ctx, pricesListMarket, pricesListProduct)
		if err != nil {
			return err
		}
		if err := markets.SavePrices(ctx, fresh); err != nil {
			return err
		}
		fmt.Printf("Refreshed %d prices.\n", len(fresh))
		return nil
	},
}

var pricesHistoryMarket string

var pricesHistoryCmd = &cobra.Command{
	Use:   "history <product>",
	Short: "Price history for a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !probe(ctx) {
			return fmt.Errorf("%w: price history needs a connection to %s", remote.ErrOffline, cfg.ServerURL)
		}
		points, err := client.PriceHistory(ctx, args[0], pricesHistoryMarket)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Println("No history for that product.")
			return nil
		}
		fmt.Println(ui.Header(args[0]))
		for _, p := range points {
			fmt.Printf("  %s  %8.2f\n", p.Date, p.Price)
		}
		return nil
	},
}

func printPrices(list []model.MarketPrice) {
	for _, p := range list {
		trend := ""
		switch p.Trend {
		case model.TrendUp:
			trend = "↑"
		case model.TrendDown:
			trend = "↓"
		}
		fmt.Printf("  %-12s %-18s %8.2f %s/%s %s\n",
			p.Date, p.ProductName, p.Price, p.Currency, p.Unit, trend)
	}
}

func init() {
	pricesListCmd.Flags().StringVar(&pricesListProduct, "product", "", "filter by product id")
	pricesListCmd.Flags().StringVar(&pricesListMarket, "market", "", "filter by market id")

	pricesRefreshCmd.Flags().StringVar(&pricesListProduct, "product", "", "refresh one product only")
	pricesRefreshCmd.Flags().StringVar(&pricesListMarket, "market", "", "refresh one market only")

	pricesHistoryCmd.Flags().StringVar(&pricesHistoryMarket, "market", "", "limit history to one market")

	pricesCmd.AddCommand(pricesListCmd)
	pricesCmd.AddCommand(pricesRefreshCmd)
	pricesCmd.AddCommand(pricesHistoryCmd)
}
