package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of products in the store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := relay.CountProducts(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Products in store: %d\n", n)
		return nil
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List every product variant with the EAN derived from its SKU.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf := newWorkflow()
		notice, err := wf.Retrieve(cmd.Context())
		printNotice(notice)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PRODUCT ID\tEAN\tLABEL\t")
		for _, o := range wf.Options() {
			fmt.Fprintf(w, "%d\t%s\t%s\t\n", o.Content.ProductID, o.Content.EAN, o.Label)
		}
		fmt.Fprintf(w, "\nProducts in store: %d\n", wf.Count())
		return w.Flush()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create five sample products with random titles.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf := newWorkflow()
		notice, err := wf.Generate(cmd.Context())
		printNotice(notice)
		if err != nil {
			return err
		}
		fmt.Printf("Products in store: %d\n", wf.Count())
		return nil
	},
}

var createFile string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the template product with a JSON object as its description.",
	Long:  "Reads a JSON object from --file (or stdin) and creates the fixed template product with it as the description.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if createFile == "" || createFile == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(createFile)
		}
		if err != nil {
			return err
		}
		if !json.Valid(raw) {
			return fmt.Errorf("input is not valid JSON")
		}
		if err := relay.CreateProduct(cmd.Context(), json.RawMessage(raw)); err != nil {
			return err
		}
		fmt.Println("Product created!")
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <ean>",
	Short: "Show the SKU library images for one EAN.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lookup, err := relay.LookupCatalog(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		record, err := lookup.First()
		if err != nil {
			return err
		}
		fmt.Printf("Front: %s\nBack:  %s\nSize:  %s\n", record.FrontImage2D, record.BackImage, record.Size)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "JSON file to read (default stdin)")

	rootCmd.AddCommand(countCmd, productsCmd, generateCmd, createCmd, lookupCmd)
}
