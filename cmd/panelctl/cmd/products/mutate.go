package products

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/cmd/panelctl/internal/render"
	"github.com/Infinity2209/user/pkg/sdk"
)

type productFields struct {
	title, description, category, image string
	price                               float64
}

var createFields, updateFields productFields

func (f *productFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Product title")
	cmd.Flags().Float64Var(&f.price, "price", 0, "Price")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.category, "category", "", "Category")
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL")
}

// patch sets only the fields whose flags were given.
func (f *productFields) patch(cmd *cobra.Command) sdk.ProductPatch {
	var p sdk.ProductPatch
	if cmd.Flags().Changed("title") {
		p.Title = &f.title
	}
	if cmd.Flags().Changed("price") {
		p.Price = &f.price
	}
	if cmd.Flags().Changed("description") {
		p.Description = &f.description
	}
	if cmd.Flags().Changed("category") {
		p.Category = &f.category
	}
	if cmd.Flags().Changed("image") {
		p.Image = &f.image
	}
	return p
}

func printProduct(cmd *cobra.Command, json bool, verb string, p sdk.Product) error {
	if json {
		return render.JSON(cmd.OutOrStdout(), p)
	}
	pterm.Success.Printf("Product %s %s\n", p.ID, verb)
	return render.Products(cmd.OutOrStdout(), []sdk.Product{p})
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := createFields
		if f.title == "" || !cmd.Flags().Changed("price") {
			return fmt.Errorf("--title and --price are required")
		}
		if f.price < 0 {
			return fmt.Errorf("--price must not be negative")
		}
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		p, err := products.Create(cmd.Context(), sdk.Product{
			Title:       f.title,
			Price:       f.price,
			Description: f.description,
			Category:    f.category,
			Image:       f.image,
		})
		if err != nil {
			return client.Explain(err)
		}
		return printProduct(cmd, cfg.JSON(), "created", p)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Change fields of a product; unspecified fields keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := updateFields.patch(cmd)
		if patch == (sdk.ProductPatch{}) {
			return fmt.Errorf("nothing to update: pass at least one of --title, --price, --description, --category, --image")
		}
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		p, err := products.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return client.Explain(err)
		}
		return printProduct(cmd, cfg.JSON(), "updated", p)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, products, err := resource(cmd.Context())
		if err != nil {
			return err
		}
		p, err := products.Delete(cmd.Context(), args[0])
		if err != nil {
			return client.Explain(err)
		}
		return printProduct(cmd, cfg.JSON(), "deleted", p)
	},
}

func init() {
	createFields.register(createCmd)
	updateFields.register(updateCmd)
}
