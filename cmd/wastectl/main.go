// Command wastectl exports reports and prints report summaries from the command line,
// talking to the ticket store directly.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"waste-console/internal/audit"
	"waste-console/internal/config"
	"waste-console/internal/export"
	"waste-console/internal/filter"
	"waste-console/internal/locale"
	"waste-console/internal/logging"
	"waste-console/internal/models"
	"waste-console/internal/reference"
	"waste-console/internal/reports"
	"waste-console/internal/store"
)

func main() {
	root := newRootCommand(config.Load())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type globalOptions struct {
	storeURL string
	email    string
	password string
	logLevel string
	timeout  time.Duration
	region   string
}

type filterOptions struct {
	year     int
	from     string
	to       string
	sector   string
	override bool
}

func (f *filterOptions) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.year, "year", 0, "Report year (defaults to the current year when no range is given)")
	cmd.Flags().StringVar(&f.from, "from", "", "Start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "End date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.sector, "sector", "", "Sector number or id; empty for the whole region")
	cmd.Flags().BoolVar(&f.override, "override", false, "Keep --from/--to even when they leave --year")
}

func (f *filterOptions) input(cmd *cobra.Command) filter.Input {
	in := filter.Input{From: f.from, To: f.to, Override: f.override}
	if f.year > 0 {
		y := f.year
		in.Year = &y
	}
	if cmd.Flags().Changed("sector") {
		s := f.sector
		in.Sector = &s
	}
	return in
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	opts := &globalOptions{
		storeURL: cfg.StoreBaseURL,
		logLevel: "warn",
		timeout:  cfg.ExportTimeout,
		region:   cfg.RegionName,
	}

	cmd := &cobra.Command{
		Use:           "wastectl",
		Short:         "Waste tracking console tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVar(&opts.storeURL, "store-url", opts.storeURL, "Ticket store base URL")
	cmd.PersistentFlags().StringVar(&opts.email, "email", os.Getenv("WASTECTL_EMAIL"), "Login email (or WASTECTL_EMAIL)")
	cmd.PersistentFlags().StringVar(&opts.password, "password", os.Getenv("WASTECTL_PASSWORD"), "Login password (or WASTECTL_PASSWORD)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Overall time limit")
	cmd.PersistentFlags().StringVar(&opts.region, "region", opts.region, "Region name used when no sector is selected")

	cmd.AddCommand(newExportCommand(opts, cfg), newSummaryCommand(opts))
	return cmd
}

// cliSession is a logged-in store user and the report service bound to it.
type cliSession struct {
	actor models.User
	token string
	svc   *reports.Service
}

func login(ctx context.Context, opts *globalOptions, exporter func(*zap.Logger) (*export.Exporter, error)) (*cliSession, error) {
	if strings.TrimSpace(opts.email) == "" || opts.password == "" {
		return nil, errors.New("--email and --password (or WASTECTL_EMAIL / WASTECTL_PASSWORD) are required")
	}
	log, err := logging.New(logging.Config{Level: opts.logLevel, Format: "console", ServiceName: "wastectl", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	client := store.New(store.Options{BaseURL: opts.storeURL, Logger: log})
	res, err := client.Login(ctx, strings.ToLower(strings.TrimSpace(opts.email)), opts.password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !res.User.Active || !res.User.Role.Valid() {
		return nil, errors.New("this account cannot use the console")
	}

	var exp *export.Exporter
	if exporter != nil {
		if exp, err = exporter(log); err != nil {
			return nil, err
		}
	}
	svc := reports.NewService(reports.Options{
		Store:    client,
		Sectors:  reference.NewLoader(client, reference.DefaultTTL, log),
		Exporter: exp,
		Audit:    audit.NewLogRecorder(log),
		Region:   opts.region,
		Logger:   log,
	})
	return &cliSession{actor: res.User, token: res.AccessToken, svc: svc}, nil
}

func parseReportType(arg string) (models.ReportType, error) {
	rt, ok := models.ParseReportType(strings.ToLower(strings.TrimSpace(arg)))
	if !ok {
		names := make([]string, len(models.ReportTypes))
		for i, t := range models.ReportTypes {
			names[i] = string(t)
		}
		return "", fmt.Errorf("unknown report type %q, expected one of %s", arg, strings.Join(names, ", "))
	}
	return rt, nil
}

func newExportCommand(opts *globalOptions, cfg *config.Config) *cobra.Command {
	var (
		f         filterOptions
		format    string
		outDir    string
		pdfEngine = cfg.PDFEngine
		fontPath  = cfg.PDFFontPath
	)
	cmd := &cobra.Command{
		Use:   "export <report-type>",
		Short: "Render a report to xlsx, pdf or csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := parseReportType(args[0])
			if err != nil {
				return err
			}
			fmtVal, ok := export.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q", format)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			s, err := login(ctx, opts, func(log *zap.Logger) (*export.Exporter, error) {
				var pdf export.PDFRenderer = export.ChromeRenderer{Timeout: opts.timeout}
				if pdfEngine != config.PDFEngineChrome {
					native, err := export.NewNativeRenderer(fontPath)
					if err != nil {
						return nil, err
					}
					pdf = native
				}
				return export.New(export.Options{RegionName: opts.region, PDF: pdf, Logger: log}), nil
			})
			if err != nil {
				return err
			}

			file, err := s.svc.Export(ctx, s.actor, s.token, rt, f.input(cmd), fmtVal)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, file.Filename)
			if err := os.WriteFile(path, file.Content, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Output format: xlsx, pdf or csv")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory the file is written to")
	cmd.Flags().StringVar(&pdfEngine, "pdf-engine", pdfEngine, "PDF engine: native or chrome")
	cmd.Flags().StringVar(&fontPath, "pdf-font", fontPath, "TTF font for the native PDF engine")
	return cmd
}

func newSummaryCommand(opts *globalOptions) *cobra.Command {
	var (
		f      filterOptions
		byCode bool
	)
	cmd := &cobra.Command{
		Use:   "summary <report-type>",
		Short: "Print the grouped totals of a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := parseReportType(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			s, err := login(ctx, opts, nil)
			if err != nil {
				return err
			}
			d, err := s.svc.Load(ctx, s.actor, s.token, rt, f.input(cmd))
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), d, byCode)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&byCode, "by-code", false, "Group by waste code instead of counterparty")
	return cmd
}

func printSummary(out io.Writer, d *reports.Dataset, byCode bool) {
	fmt.Fprintf(out, "%s report, %s .. %s, %s\n", d.ReportType,
		locale.FormatDate(d.Filter.FromString()), locale.FormatDate(d.Filter.ToString()), d.Location)
	fmt.Fprintf(out, "Total: %s t in %d tickets\n\n",
		locale.FormatNumber(d.Summary.TotalTons, 2), d.Summary.TotalTickets)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	if byCode {
		fmt.Fprintln(tw, "Code\tTickets\tTons\tShare\t")
		for _, c := range d.ByCode {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", c.Code, c.Tickets, locale.FormatTons(c.Quantity), locale.FormatPercent(c.Percent))
		}
	} else {
		fmt.Fprintln(tw, "Name\tTons\tCodes\t")
		for _, g := range d.Groups {
			codes := make([]string, 0, len(g.Codes))
			for _, c := range g.Shares() {
				codes = append(codes, c.Code+" "+locale.FormatPercent(c.Percent))
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", g.Name, locale.FormatTons(g.Total), strings.Join(codes, ", "))
		}
	}
	_ = tw.Flush()
}
