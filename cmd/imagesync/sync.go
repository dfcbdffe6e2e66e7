package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/asorevs/image-api-updater/internal/workflow"
)

var (
	syncAll  bool
	syncEANs []string
	syncYes  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Look up the selected variants in the SKU library and save their images.",
	Long: `Retrieves the store products, selects variants (--all, or --ean in the order given),
resolves each EAN in the SKU library one at a time, shows what was found and then saves
the front and back images. Each image is named after the catalog file and gets the
catalog size as alt text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !syncAll && len(syncEANs) == 0 {
			return fmt.Errorf("select products with --all or --ean")
		}

		ctx := cmd.Context()
		wf := newWorkflow()
		notice, err := wf.Retrieve(ctx)
		printNotice(notice)
		if err != nil {
			return err
		}

		if err := selectOptions(wf); err != nil {
			return err
		}
		fmt.Printf("Selected %d of %d variants\n", len(wf.Selected()), len(wf.Options()))

		resolved, err := wf.Resolve(ctx, progressPrinter("Loading images"))
		for _, s := range wf.Skipped() {
			fmt.Fprintf(os.Stderr, "No SKU library record for %s\n", s.Label)
		}
		if err != nil {
			if len(resolved) == 0 {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nLookup stopped: %v\n", err)
		}
		if len(resolved) == 0 {
			return fmt.Errorf("nothing to upload")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "#\tPRODUCT\tSIZE\tFRONT\tBACK\t")
		for i, r := range resolved {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", i+1, r.Label, r.Images.SizeLabel, r.Images.FrontImageURL, r.Images.BackImageURL)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if !syncYes && !confirm(fmt.Sprintf("Save images for %d products?", len(resolved))) {
			fmt.Println("Aborted.")
			return nil
		}

		outcomes, err := wf.Upload(ctx, progressPrinter("Saving images"))
		failed := 0
		for _, o := range outcomes {
			if o.Success {
				continue
			}
			failed++
			fmt.Fprintf(os.Stderr, "Product %d (EAN %s): %s\n", o.ProductID, o.EAN, o.Error)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Saved images for %d of %d products\n", len(outcomes)-failed, len(outcomes))
		if failed > 0 {
			return fmt.Errorf("%d products had failed image saves", failed)
		}
		return nil
	},
}

// selectOptions applies --all or --ean. EANs are selected in flag order.
func selectOptions(wf *workflow.Workflow) error {
	if syncAll {
		wf.SelectAll()
		return nil
	}
	seen := make(map[string]bool)
	for _, ean := range syncEANs {
		if seen[ean] {
			continue
		}
		seen[ean] = true
		matched := false
		for _, o := range wf.Options() {
			if o.Content.EAN != ean {
				continue
			}
			matched = true
			if _, err := wf.Toggle(o.Key); err != nil {
				return err
			}
		}
		if !matched {
			return fmt.Errorf("no store variant has EAN %s", ean)
		}
	}
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "select every variant")
	syncCmd.Flags().StringSliceVar(&syncEANs, "ean", nil, "EAN to select (repeatable, order is kept)")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "save without asking")

	rootCmd.AddCommand(syncCmd)
}
