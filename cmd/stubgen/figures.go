package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"paystub/internal/domain/payroll"
)

func newFiguresCmd() *cobra.Command {
	var salary, periods int
	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Print the per-period amounts for an annual salary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := payroll.Calculate(salary, periods)
			if err != nil {
				return err
			}
			words, err := payroll.IntegerToWords(int(f.NetPay().RoundBank(0).IntPart()))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			rows := []struct {
				label string
				value string
			}{
				{"Gross", payroll.FormatCurrency(f.Gross)},
				{"Federal withholding", payroll.FormatCurrency(f.Federal)},
				{"Social Security", payroll.FormatCurrency(f.SocialSecurity)},
				{"Medicare", payroll.FormatCurrency(f.Medicare)},
				{"Total deductions", payroll.FormatCurrency(f.TotalDeduction)},
				{"Net pay", payroll.FormatCurrency(f.NetPay())},
				{"Tax rate", f.Rate.String()},
			}
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s dollars and %s/100\n", words, payroll.DecimalPart(f.NetPay()))
			return err
		},
	}
	cmd.Flags().IntVar(&salary, "salary", 0, "annual salary in whole dollars")
	cmd.Flags().IntVar(&periods, "periods", payroll.PeriodsBiweekly, "pay periods per year")
	_ = cmd.MarkFlagRequired("salary")
	return cmd
}
