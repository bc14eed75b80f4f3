package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/pkgbuilder/internal/builder"
)

func newTotalsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "totals <file>",
		Short: "Print package totals of a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			g.logger.Debug().Str("file", args[0]).Int("nodes", len(doc.Nodes)).Msg("document read")
			return printTotals(cmd.OutOrStdout(), doc)
		},
	}
}

func newPreviewCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file>",
		Short: "Print the customer preview of a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}
			g.logger.Debug().Str("file", args[0]).Int("nodes", len(doc.Nodes)).Msg("document read")
			return printPreview(cmd.OutOrStdout(), doc)
		},
	}
}

func readDocument(path string) (builder.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return builder.Document{}, fmt.Errorf("reading document: %w", err)
	}
	doc, err := builder.Unmarshal(data)
	if err != nil {
		return builder.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	doc, _ = builder.UpdatePackageTotals(doc)
	return doc, nil
}

func printTotals(w io.Writer, doc builder.Document) error {
	pkg, ok := doc.Package()
	if !ok {
		return builder.ErrNoPackage
	}

	d := pkg.Data
	fmt.Fprintf(w, "Package:  %s\n", d.Label)
	fmt.Fprintf(w, "Courses:  %d\n", d.CoursesCount)
	fmt.Fprintf(w, "Total:    %.2f\n", d.TotalPrice)
	if d.IsDiscountActive && d.DiscountPercentage > 0 {
		fmt.Fprintf(w, "Discount: %.2f (%g%%)\n", d.DiscountAmount, d.DiscountPercentage)
	}
	fmt.Fprintf(w, "Final:    %.2f\n", d.FinalPrice)
	return nil
}

func printPreview(w io.Writer, doc builder.Document) error {
	p, err := builder.PreviewOf(doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", p.Package.Label)
	if p.Package.Description != "" {
		fmt.Fprintf(w, "%s\n", p.Package.Description)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOURSE\tSUBJECT\tPRICE")
	for _, c := range p.Courses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", c.ID, c.Name, c.Subject, c.Price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return printTotals(w, doc)
}
