package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regmap/internal/core"
	"github.com/JonMunkholm/regmap/internal/export"
	"github.com/JonMunkholm/regmap/internal/service"
)

type convertOptions struct {
	backend string
	output  string
	format  string
	report  bool
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [flags] <file>",
		Short: "Convert a register map document",
		Long: `Convert reads one document, runs the selected backend over its tables and
writes the canonical records. The output defaults to processed_<name>.xlsx
next to the input file.`,
		Example: `  regmap convert -b cefa -o out.xlsx tables.json
  regmap convert -b keyter_carel -f csv map.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "backend key (default from CONVERT_DEFAULT_BACKEND)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file path, - for stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: xlsx, csv or json (default from output extension, else xlsx)")
	cmd.Flags().BoolVar(&opts.report, "report", false, "print a per-table report")
	return cmd
}

func runConvert(cmd *cobra.Command, opts *convertOptions, input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := outputFormat(opts)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	svc := service.New(cfg, nil)
	conv, err := svc.Convert(context.Background(), service.ConvertRequest{
		Backend:  opts.backend,
		FileName: input,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("%s: %s", input, core.FormatUserError(err))
	}

	if opts.output == "-" {
		if err := export.Write(cmd.OutOrStdout(), format, conv.Records); err != nil {
			return err
		}
	} else {
		out := opts.output
		if out == "" {
			out = filepath.Join(filepath.Dir(input), export.FileName(input, format))
		}
		if err := writeOutput(out, format, conv); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d records written to %s\n", len(conv.Records), out)
	}

	if opts.report {
		printReport(cmd, conv.Reports)
	}
	return nil
}

func outputFormat(opts *convertOptions) (export.Format, error) {
	if opts.format != "" {
		return export.ParseFormat(opts.format)
	}
	if ext := filepath.Ext(opts.output); ext != "" && opts.output != "-" {
		return export.ParseFormat(ext[1:])
	}
	return export.FormatXLSX, nil
}

func writeOutput(path string, format export.Format, conv *service.Conversion) error {
	if format == export.FormatXLSX && len(conv.Workbook) > 0 {
		return os.WriteFile(path, conv.Workbook, 0o644)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(f, format, conv.Records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printReport(cmd *cobra.Command, reports []core.TableReport) {
	tw := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tHEADER\tROWS\tSTATUS")
	for _, r := range reports {
		status := "ok"
		if r.Skipped {
			status = "skipped: " + r.Reason
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Source, r.HeaderRow, r.Rows, status)
	}
	tw.Flush()
}
