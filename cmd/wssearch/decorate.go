package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildscribe/site-search/internal/decorate"
)

var (
	decorateFragment string
	decorateOutput   string
)

var decorateCmd = &cobra.Command{
	Use:   "decorate <page.html>",
	Short: "Apply popover and expanded-attribute state to a rendered page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening page: %w", err)
		}
		defer in.Close()

		var out io.Writer = os.Stdout
		if decorateOutput != "" {
			f, err := os.Create(decorateOutput)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			out = f
		}

		report, err := decorate.DecorateHTML(in, out, decorateFragment)
		if err != nil {
			return err
		}

		for _, failure := range report.Failures {
			warnf("%v", failure)
		}
		fmt.Fprintf(os.Stderr, "Decorated %d popovers", report.Popovers)
		if report.Expanded != "" {
			fmt.Fprintf(os.Stderr, ", expanded #%s", report.Expanded)
		}
		fmt.Fprintln(os.Stderr)
		return nil
	},
}

func init() {
	decorateCmd.Flags().StringVar(&decorateFragment, "fragment", "", "URL fragment, e.g. #attr-max-pool-size")
	decorateCmd.Flags().StringVarP(&decorateOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(decorateCmd)
}
