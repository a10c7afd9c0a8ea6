package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ranksum/adapters/api"
	"ranksum/adapters/excel"
	"ranksum/adapters/stats/distributions"
	"ranksum/adapters/stats/wilcoxon"
	"ranksum/domain/hypothesis"
	"ranksum/internal"
	"ranksum/internal/aok"
	"ranksum/internal/batch"
	"ranksum/internal/errors"
	"ranksum/internal/jsonx"
	"ranksum/internal/profiling"
)

// testFlags are the hypothesis flags shared by test and batch
type testFlags struct {
	alt    string
	alpha  float64
	asJSON bool
}

func (f *testFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.alt, "alt", "", "Alternative hypothesis: lt, gt or ne (default from RANKSUM_ALT_HYP)")
	cmd.Flags().Float64Var(&f.alpha, "alpha", 0, "Significance level in (0, 1) (default from RANKSUM_ALPHA)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
}

func (f *testFlags) resolve(cmd *cobra.Command, a *app) (hypothesis.AltHyp, float64, error) {
	altHyp := a.cfg.Test.AltHyp
	if cmd.Flags().Changed("alt") {
		parsed, err := hypothesis.ParseAltHyp(f.alt)
		if err != nil {
			return altHyp, 0, errors.FromDomain(err)
		}
		altHyp = parsed
	}
	alpha := a.cfg.Test.Alpha
	if cmd.Flags().Changed("alpha") {
		alpha = f.alpha
	}
	return altHyp, alpha, nil
}

func newTestCmd(a *app) *cobra.Command {
	var flags testFlags
	var file, xCol, yCol, xs, ys string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the rank sum test on two samples",
		Long: `Run the Wilcoxon rank sum test on two samples read from a CSV or xlsx file
(--file with --x and --y column names) or given inline (--xs and --ys).

Example: ranksum test --file trial.csv --x control --y treated --alt gt
Example: ranksum test --xs 0.73,0.80,0.83 --ys 0.74,0.88 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			altHyp, alpha, err := flags.resolve(cmd, a)
			if err != nil {
				return err
			}
			x, y, err := loadSamples(a.logger, file, xCol, yCol, xs, ys)
			if err != nil {
				return err
			}
			out, err := runTest(x, y, altHyp, alpha)
			if err != nil {
				return errors.FromDomain(err)
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return out.writeText(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or xlsx file with a header row")
	cmd.Flags().StringVar(&xCol, "x", "", "Column holding sample X")
	cmd.Flags().StringVar(&yCol, "y", "", "Column holding sample Y")
	cmd.Flags().StringVar(&xs, "xs", "", "Comma separated values of sample X")
	cmd.Flags().StringVar(&ys, "ys", "", "Comma separated values of sample Y")
	cmd.MarkFlagsRequiredTogether("file", "x", "y")
	cmd.MarkFlagsRequiredTogether("xs", "ys")
	cmd.MarkFlagsMutuallyExclusive("file", "xs")
	cmd.MarkFlagsOneRequired("file", "xs")
	flags.register(cmd)

	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var flags testFlags
	var file string
	var pairSpecs []string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the rank sum test on many column pairs of one file",
		Long: `Run the rank sum test concurrently on column pairs of a CSV or xlsx file.
Each --pair is name:columnX:columnY, or columnX:columnY to name the pair after its columns.

Example: ranksum batch --file trial.xlsx --pair week1:control_w1:treated_w1 --pair week2:control_w2:treated_w2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			altHyp, alpha, err := flags.resolve(cmd, a)
			if err != nil {
				return err
			}

			table, err := excel.NewSampleReader(file).WithLogger(a.logger).ReadTable()
			if err != nil {
				return err
			}
			pairs := make([]batch.Pair, 0, len(pairSpecs))
			for _, spec := range pairSpecs {
				name, xCol, yCol, err := parsePairSpec(spec)
				if err != nil {
					return err
				}
				x, err := table.Column(xCol)
				if err != nil {
					return err
				}
				y, err := table.Column(yCol)
				if err != nil {
					return err
				}
				pairs = append(pairs, batch.Pair{Name: name, X: x, Y: y})
			}

			runner := batch.NewRunner(a.cfg.Batch.MaxConcurrency, a.logger)
			runner.Timeout = a.cfg.Batch.Timeout
			report, err := runner.Run(cmd.Context(), pairs, altHyp, alpha)
			if err != nil {
				return errors.FromDomain(err)
			}
			if flags.asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeReport(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "CSV or xlsx file with a header row")
	cmd.Flags().StringArrayVar(&pairSpecs, "pair", nil, "Pair to test as name:columnX:columnY (repeatable)")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("pair")
	flags.register(cmd)

	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rank sum test over HTTP",
		Long: `Serve POST /v1/ranksum, POST /v1/ranksum/batch and GET /healthz until interrupted.

Example: ranksum serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return api.NewServer(a.cfg, a.logger).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from PORT)")

	return cmd
}

// testOutput is everything the test command reports for one pair
type testOutput struct {
	NX       uint64            `json:"n_x"`
	NY       uint64            `json:"n_y"`
	W        jsonx.Float       `json:"w"`
	RW       jsonx.Float       `json:"r_w"`
	UX       jsonx.Float       `json:"u_x"`
	UY       jsonx.Float       `json:"u_y"`
	U        jsonx.Float       `json:"u"`
	Z        jsonx.Float       `json:"z"`
	ZCrit    jsonx.Float       `json:"z_critical"`
	P        jsonx.Float       `json:"p"`
	AltHyp   hypothesis.AltHyp `json:"alt_hyp"`
	Alpha    float64           `json:"alpha"`
	Accepted hypothesis.Hyp    `json:"accepted"`
	X        profiling.Summary `json:"x_summary"`
	Y        profiling.Summary `json:"y_summary"`
}

func runTest(x, y []float64, altHyp hypothesis.AltHyp, alpha float64) (*testOutput, error) {
	x, y = slices.Clone(x), slices.Clone(y)
	slices.Sort(x)
	slices.Sort(y)

	rs, err := wilcoxon.FromSlices(x, y)
	if err != nil {
		return nil, err
	}
	result, err := rs.Test(altHyp, alpha)
	if err != nil {
		return nil, err
	}

	return &testOutput{
		NX:       rs.NX(),
		NY:       rs.NY(),
		W:        jsonx.Float(rs.W()),
		RW:       jsonx.Float(rs.RW()),
		UX:       jsonx.Float(rs.MannWhitneyUX()),
		UY:       jsonx.Float(rs.MannWhitneyUY()),
		U:        jsonx.Float(rs.MannWhitneyU()),
		Z:        jsonx.Float(aok.Float(rs.Z())),
		ZCrit:    jsonx.Float(aok.Float(distributions.ZCritical(alpha, altHyp))),
		P:        jsonx.Float(result.P()),
		AltHyp:   altHyp,
		Alpha:    alpha,
		Accepted: result.Accepted(),
		X:        profiling.Describe(x),
		Y:        profiling.Describe(y),
	}, nil
}

func (o *testOutput) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "n_x\t%d\n", o.NX)
	fmt.Fprintf(tw, "n_y\t%d\n", o.NY)
	fmt.Fprintf(tw, "W (rank sum of y)\t%g\n", o.W)
	fmt.Fprintf(tw, "R's W\t%g\n", o.RW)
	fmt.Fprintf(tw, "U_x / U_y / U\t%g / %g / %g\n", o.UX, o.UY, o.U)
	fmt.Fprintf(tw, "z\t%.6g\n", o.Z)
	fmt.Fprintf(tw, "z critical\t%.6g\n", o.ZCrit)
	fmt.Fprintf(tw, "p (%s)\t%.6g\n", o.AltHyp, o.P)
	fmt.Fprintf(tw, "alpha\t%g\n", o.Alpha)
	fmt.Fprintf(tw, "accepted\t%s\n", o.Accepted)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "sample\tn\tmean\tsd\tmin\tq25\tmedian\tq75\tmax")
	for _, row := range []struct {
		name string
		s    profiling.Summary
	}{{"x", o.X}, {"y", o.Y}} {
		s := row.s
		fmt.Fprintf(tw, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
			row.name, s.N, s.Mean, s.StdDev, s.Min, s.Q25, s.Median, s.Q75, s.Max)
	}
	return tw.Flush()
}

func writeReport(w io.Writer, report *batch.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s  alt=%s  alpha=%g  failed=%d/%d  took %v\n\n",
		report.RunID, report.AltHyp, report.Alpha, report.Failed, len(report.Results), report.Duration)
	fmt.Fprintln(tw, "pair\tn_x\tn_y\tW\tz\tp\taccepted\terror")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%g\t%.4g\t%.4g\t%s\t%s\n",
			r.Name, r.NX, r.NY, r.W, r.Z, r.P, r.Accepted, r.Code)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadSamples(logger *internal.Logger, file, xCol, yCol, xs, ys string) (x, y []float64, err error) {
	if file != "" {
		return excel.NewSampleReader(file).WithLogger(logger).ReadColumns(xCol, yCol)
	}
	if x, err = parseValues(xs); err != nil {
		return nil, nil, errors.Wrap(err, "--xs")
	}
	if y, err = parseValues(ys); err != nil {
		return nil, nil, errors.Wrap(err, "--ys")
	}
	return x, y, nil
}

// parseValues reads comma separated finite numbers; empty entries are skipped
func parseValues(s string) ([]float64, error) {
	var values []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.InvalidInput(fmt.Sprintf("%q is not a finite number", field))
		}
		values = append(values, v)
	}
	return values, nil
}

func parsePairSpec(spec string) (name, xCol, yCol string, err error) {
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 2:
		return parts[0] + " vs " + parts[1], parts[0], parts[1], nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	}
	return "", "", "", errors.InvalidInput(fmt.Sprintf("pair %q must be name:columnX:columnY", spec))
}
