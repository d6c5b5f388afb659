package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/xndadelin/Grosharing/internal/house"
)

var (
	addQuantity    int
	addPrice       string
	addDescription string
	addImage       string
)

var addCmd = &cobra.Command{
	Use:   "add <item name>",
	Short: "Add an item to the shopping list",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().IntVarP(&addQuantity, "quantity", "q", 1, "quantity")
	addCmd.Flags().StringVarP(&addPrice, "price", "p", "", "price")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "description")
	addCmd.Flags().StringVar(&addImage, "image", "", "path to an image of the item")
}

func runAdd(cmd *cobra.Command, args []string) error {
	in := house.NewItem{
		Name:        args[0],
		Quantity:    addQuantity,
		Description: addDescription,
		Price:       addPrice,
	}
	if addImage != "" {
		data, err := os.ReadFile(addImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		in.Image = &house.Image{Data: data, ContentType: http.DetectContentType(data)}
	}

	st, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	item, err := st.AddItem(cmd.Context(), in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatItem(*item))
	return nil
}
