package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paystub/internal/domain/payroll"
	"paystub/internal/platform/docx"
)

func newTemplateCmd() *cobra.Command {
	var out string
	var listTokens bool
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the built-in sample stub template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listTokens {
				for _, token := range payroll.Tokens() {
					fmt.Fprintln(cmd.OutOrStdout(), token)
				}
				return nil
			}
			raw, err := docx.SampleTemplate()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "base_template.docx", "output DOCX path")
	cmd.Flags().BoolVar(&listTokens, "tokens", false, "list the placeholder tokens instead")
	return cmd
}
