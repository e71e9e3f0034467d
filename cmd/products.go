package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hoangnm/techshop/api/request"
	"github.com/hoangnm/techshop/api/response"
	"github.com/hoangnm/techshop/currency"
	"github.com/hoangnm/techshop/internal/log"
)

func productsCommand() *cobra.Command {
	var (
		search   string
		category string
		sort     string
		page     int
		pageSize int
	)

	command := &cobra.Command{
		Use:   "products",
		Short: "List products from the catalog",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main productsCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			filter := request.ProductFilter{
				Search:   search,
				Sort:     sort,
				Page:     page,
				PageSize: pageSize,
			}
			if category != "" {
				categoryId, err := uuid.Parse(category)
				if err != nil {
					return fmt.Errorf("failed parsing category id with error=%w", err)
				}
				filter.CategoryId = &categoryId
			}

			logger.Info().Str(log.KeyProcess, "getting products").Msg("getting products")
			result, err := app.client.GetProducts(c, filter)
			if err != nil {
				return err
			}
			logger.Info().Str(log.KeyProcess, "getting products").Msg("got products")

			for _, product := range result.Products {
				variant, ok := product.DefaultVariant()
				if !ok {
					fmt.Printf("%s  %s  %s\n", product.ID, product.Name, currency.Placeholder)
					continue
				}
				fmt.Printf(
					"%s  %s (%s)  %s  stock=%d\n",
					product.ID,
					product.Name,
					variant.Name,
					currency.Format(variant.EffectivePrice()),
					variant.Stock,
				)
			}
			fmt.Printf("page %d/%d, %d products\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}
	command.Flags().StringVar(&search, "search", "", "search keyword")
	command.Flags().StringVar(&category, "category", "", "category id")
	command.Flags().StringVar(&sort, "sort", "", "sort order")
	command.Flags().IntVar(&page, "page", 1, "page number")
	command.Flags().IntVar(&pageSize, "page-size", 20, "page size")
	return command
}

func categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category tree",
		RunE: func(command *cobra.Command, args []string) error {
			c := command.Context()
			logger := zerolog.Ctx(c).
				With().
				Str(log.KeyTag, "main categoriesCommand").
				Logger()
			c = logger.WithContext(c)

			app, err := initApp(c)
			if err != nil {
				return err
			}
			defer app.close(c)

			logger.Info().Str(log.KeyProcess, "getting categories").Msg("getting categories")
			categories, err := app.client.GetCategories(c)
			if err != nil {
				return err
			}
			printCategories(categories, 0)
			return nil
		},
	}
}

func printCategories(categories []response.Category, depth int) {
	for _, category := range categories {
		fmt.Printf("%*s%s  %s\n", depth*2, "", category.Name, category.ID)
		printCategories(category.Children, depth+1)
	}
}
