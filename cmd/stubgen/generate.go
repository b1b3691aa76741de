package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paystub/internal/domain/payroll"
	"paystub/internal/domain/stubs"
	"paystub/internal/platform/archive"
	"paystub/internal/platform/config"
	"paystub/internal/platform/docx"
	"paystub/internal/platform/pdfconv"
)

type generateOptions struct {
	salary    int
	periods   int
	start     string
	end       string
	fields    string
	template  string
	converter string
	soffice   string
	workers   int
	timeout   time.Duration
	plain     bool
	out       string
}

func newGenerateCmd() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render one PDF per payday into a zip archive",
		Example: `  stubgen generate --salary 52000 --start 2024-01-05 --end 2024-03-01 \
    --fields employee.yaml --out stubs.zip`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.salary, "salary", 0, "annual salary in whole dollars")
	f.IntVar(&opts.periods, "periods", payroll.PeriodsBiweekly, "pay periods per year")
	f.StringVar(&opts.start, "start", "", "first date of the range (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", "", "last date of the range (YYYY-MM-DD)")
	f.StringVar(&opts.fields, "fields", "", "YAML file with the employee and employer fields")
	f.StringVar(&opts.template, "template", "", "DOCX template (defaults to the built-in sample)")
	f.StringVar(&opts.converter, "converter", config.ConverterNative, "PDF converter: native or libreoffice")
	f.StringVar(&opts.soffice, "soffice", "soffice", "LibreOffice binary")
	f.IntVar(&opts.workers, "workers", 1, "periods rendered concurrently")
	f.DurationVar(&opts.timeout, "timeout", stubs.DefaultConvertTimeout, "per-document conversion timeout")
	f.BoolVar(&opts.plain, "plain", false, "skip table cell formatting")
	f.StringVarP(&opts.out, "out", "o", stubs.ArchiveFilename, "output zip path")
	for _, name := range []string{"salary", "start", "end", "fields"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func loadStaticFields(path string) (payroll.StaticFields, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return payroll.StaticFields{}, err
	}
	var static payroll.StaticFields
	if err := yaml.Unmarshal(raw, &static); err != nil {
		return payroll.StaticFields{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return static, nil
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	static, err := loadStaticFields(opts.fields)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "stubgen-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	template := opts.template
	if template == "" {
		raw, err := docx.SampleTemplate()
		if err != nil {
			return err
		}
		template = filepath.Join(workDir, "template.docx")
		if err := os.WriteFile(template, raw, 0o600); err != nil {
			return err
		}
	}

	var converter stubs.Converter
	switch opts.converter {
	case config.ConverterNative:
		converter = pdfconv.NewNative()
	case config.ConverterLibreOffice:
		converter = pdfconv.NewLibreOffice(opts.soffice, opts.timeout)
	default:
		return fmt.Errorf("unknown converter %q", opts.converter)
	}

	var policy payroll.FormattingPolicy = payroll.CellFormatting{}
	if opts.plain {
		policy = payroll.PlainFormatting{}
	}

	svc := stubs.NewService(&stubs.Pipeline{
		Template:       template,
		WorkDir:        workDir,
		Filler:         docx.NewFiller(),
		Converter:      converter,
		Archiver:       archive.NewZipWriter(),
		Workers:        opts.workers,
		ConvertTimeout: opts.timeout,
	}, policy, nil)

	result, err := svc.GenerateBatch(cmd.Context(), stubs.Request{
		AnnualSalary:   opts.salary,
		PeriodsPerYear: opts.periods,
		StartDate:      opts.start,
		EndDate:        opts.end,
		Static:         static,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, result.Archive, 0o644); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range result.Documents {
		fmt.Fprintln(out, name)
	}
	_, err = fmt.Fprintf(out, "wrote %d documents to %s\n", len(result.Documents), opts.out)
	return err
}
