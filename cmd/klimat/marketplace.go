package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/ui"
)

var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Your marketplace listings",
}

var (
	sellAddPrice    float64
	sellAddQuantity string
	sellAddCategory string
	sellAddDesc     string
)

var sellAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "List produce for sale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product := model.MarketplaceProduct{
			Name:        args[0],
			Description: sellAddDesc,
			Price:       sellAddPrice,
			Quantity:    sellAddQuantity,
			Category:    sellAddCategory,
		}
		if product.Category == "" {
			opts := make([]huh.Option[string], 0, len(model.ProductCategories))
			for _, c := range model.ProductCategories {
				opts = append(opts, huh.NewOption(c, c))
			}
			form := huh.NewForm(huh.NewGroup(
				huh.NewSelect[string]().
					Title("Category").
					Options(opts...).
					Value(&product.Category),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}

		id, err := marketplace.AddProduct(cmd.Context(), &product)
		if err != nil {
			return err
		}
		fmt.Printf("Listed %s (#%d). It will upload when a connection is available.\n", product.Name, id)
		return nil
	},
}

var (
	sellListCategory string
	sellListSearch   string
)

var sellListCmd = &cobra.Command{
	Use:   "list",
	Short: "Browse listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var list []model.MarketplaceProduct
		var err error
		switch {
		case sellListSearch != "":
			list, err = marketplace.Search(ctx, sellListSearch)
		case sellListCategory != "":
			list, err = marketplace.ByCategory(ctx, sellListCategory)
		default:
			list, err = marketplace.Products(ctx)
		}
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No listings yet. Add one with `klimat sell add`.")
			return nil
		}
		for _, p := range list {
			fmt.Printf("  #%-4d %-20s %8.2f %s  %-12s %s%s\n",
				p.ID, p.Name, p.Price, p.Currency, p.Category, p.FarmerName,
				ui.SyncBadge(p.Synced))
		}
		return nil
	},
}

var sellRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid listing id %q", args[0])
		}
		if err := marketplace.DeleteProduct(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Removed listing #%d\n", id)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Seller profile used on listings",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the seller profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := marketplace.Profile(cmd.Context())
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Println("No profile set. Run `klimat profile set`.")
			return nil
		}
		fmt.Println(ui.Header(p.Name))
		fmt.Println("  " + ui.Field("phone", p.Phone))
		fmt.Println("  " + ui.Field("location", p.Location))
		if p.FarmName != "" {
			fmt.Println("  " + ui.Field("farm", p.FarmName))
		}
		if p.Email != "" {
			fmt.Println("  " + ui.Field("email", p.Email))
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the seller profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		profile, err := marketplace.Profile(ctx)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &model.FarmerProfile{}
		}

		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&profile.Name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().Title("Phone").Value(&profile.Phone).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("phone is required")
					}
					return nil
				}),
			huh.NewInput().Title("Location").Value(&profile.Location),
			huh.NewInput().Title("Farm name").Value(&profile.FarmName),
		))
		if err := form.Run(); err != nil {
			return err
		}

		if err := marketplace.SaveProfile(ctx, profile); err != nil {
			return err
		}
		fmt.Println("Profile saved.")
		return nil
	},
}

func init() {
	sellAddCmd.Flags().Float64Var(&sellAddPrice, "price", 0, "asking price")
	sellAddCmd.Flags().StringVar(&sellAddQuantity, "quantity", "", "quantity available, e.g. \"50 kg\"")
	sellAddCmd.Flags().StringVar(&sellAddCategory, "category", "", "listing category")
	sellAddCmd.Flags().StringVar(&sellAddDesc, "description", "", "listing description")

	sellListCmd.Flags().StringVar(&sellListCategory, "category", "", "filter by category")
	sellListCmd.Flags().StringVar(&sellListSearch, "search", "", "search name and description")

	sellCmd.AddCommand(sellAddCmd)
	sellCmd.AddCommand(sellListCmd)
	sellCmd.AddCommand(sellRemoveCmd)

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}
