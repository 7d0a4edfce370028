// Command deblur runs iterative deblurring experiments on a grayscale image.
//
// Usage:
//
//	deblur [flags] [method ...]
//
// The input (a file or a synthetic pattern) is blurred with a Gaussian
// kernel, corrupted with noise of a given relative level and then restored
// with each requested method. Without arguments every method is run.
//
// Examples:
//
//	deblur tikhonov
//	deblur -pattern bars -size 128 -noise 0.05 naive truncated
//	deblur -in photo.png -out restored.png discrepancy
//	deblur -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-deblur/deconv/descent"
	"github.com/cwbudde/algo-deblur/deconv/discrepancy"
	"github.com/cwbudde/algo-deblur/deconv/objective"
	"github.com/cwbudde/algo-deblur/dsp/blur"
	"github.com/cwbudde/algo-deblur/dsp/core"
	"github.com/cwbudde/algo-deblur/dsp/signal"
	"github.com/cwbudde/algo-deblur/internal/imageio"
	"github.com/cwbudde/algo-deblur/measure/quality"
)

// L1 weights assume intensities in [0, 1]; they are 1/255 of the values
// used for 8-bit images. The L2 strength does not depend on the scale.
type methodEntry struct {
	name      string
	desc      string
	hasLambda bool
	defLambda float64
	zeroStart bool
	selects   bool
}

var registry = []methodEntry{
	{"naive", "plain least squares, last iterate", false, 0, false, false},
	{"truncated", "plain least squares, best iterate against ground truth", false, 0, false, false},
	{"tikhonov", "least squares with λ‖x‖²/2", true, 0.04, false, false},
	{"lasso", "least squares with λ‖x‖₁, started from zero", true, 0.0016, true, false},
	{"elastic", "least squares with λ‖x‖²/2 + μ‖x‖₁", true, 0.04, false, false},
	{"spectral", "closed-form tikhonov by spectral division", true, 0.04, false, false},
	{"discrepancy", "tikhonov with λ chosen by the discrepancy principle", false, 0, false, true},
	{"discrepancy-elastic", "elastic net with λ chosen by the discrepancy principle, truncated", false, 0, false, true},
}

type options struct {
	in       string
	pattern  string
	size     int
	diameter int
	sigma    float64
	noise    float64
	seed     uint64
	lambda   float64
	mu       float64
	iter     int
	tol      float64
	out      string
	observed string
	estimate bool
}

// problem is one corrupted observation with its ground truth. selectNorm is
// the noise norm handed to the discrepancy search.
type problem struct {
	truth      *core.Image
	observed   *core.Image
	op         *blur.Operator
	noiseNorm  float64
	selectNorm float64
}

// outcome is one row of the report.
type outcome struct {
	method     string
	lambda     float64
	iterations int
	status     string
	report     quality.Report
	x          *core.Image
}

func main() {
	var o options

	flag.StringVar(&o.in, "in", "", "input image file (png, jpeg, bmp); overrides -pattern")
	flag.StringVar(&o.pattern, "pattern", signal.PatternPhantom, "synthetic input pattern ("+strings.Join(signal.Patterns(), ", ")+")")
	flag.IntVar(&o.size, "size", 64, "pattern side length, or maximum side for -in")
	flag.IntVar(&o.diameter, "d", 7, "blur kernel diameter in pixels")
	flag.Float64Var(&o.sigma, "sigma", 0.5, "blur kernel spread")
	flag.Float64Var(&o.noise, "noise", 0.1, "noise level relative to the blurred image norm")
	flag.Uint64Var(&o.seed, "seed", 1, "noise seed")
	flag.Float64Var(&o.lambda, "lambda", math.NaN(), "regularization strength for tikhonov, lasso, elastic and spectral")
	flag.Float64Var(&o.mu, "mu", 0.0004, "l1 weight for the elastic methods")
	flag.IntVar(&o.iter, "iter", descent.DefaultMaxIterations, "maximum solver iterations")
	flag.Float64Var(&o.tol, "tol", descent.DefaultTolerance, "gradient norm tolerance")
	flag.StringVar(&o.out, "out", "", "write restored image(s); the method name is appended when several run")
	flag.StringVar(&o.observed, "observed", "", "write the blurred and noisy observation")
	flag.BoolVar(&o.estimate, "estimate", false, "estimate the noise norm from the observation for discrepancy methods")
	verbose := flag.Bool("v", false, "log every solver iteration")
	list := flag.Bool("list", false, "list available methods")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deblur [flags] [method ...]\n\n")
		fmt.Fprintf(os.Stderr, "Blurs and corrupts an image, then restores it with iterative solvers.\n")
		fmt.Fprintf(os.Stderr, "Without arguments every method is run.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  deblur tikhonov\n")
		fmt.Fprintf(os.Stderr, "  deblur -pattern bars -size 128 -noise 0.05 naive truncated\n")
		fmt.Fprintf(os.Stderr, "  deblur -in photo.png -out restored.png discrepancy\n")
		fmt.Fprintf(os.Stderr, "  deblur -list\n")
	}
	flag.Parse()

	if *list {
		printList(os.Stdout)
		return
	}

	log := newLogger(os.Stderr, *verbose)

	entries := resolveEntries(flag.Args(), log)
	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching methods\n")
		os.Exit(1)
	}

	p, err := prepare(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if o.observed != "" {
		if err := imageio.Save(o.observed, p.observed); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	fields := logrus.Fields{
		"rows":       p.truth.Rows,
		"cols":       p.truth.Cols,
		"noise_norm": p.noiseNorm,
		"condition":  p.op.Condition(),
	}
	if o.estimate {
		fields["estimated_norm"] = p.selectNorm
	}
	log.WithFields(fields).Info("problem prepared")

	var results []outcome
	for _, e := range entries {
		res, err := run(p, e, o, log)
		if err != nil {
			log.WithError(err).WithField("method", e.name).Error("method failed")
			continue
		}
		results = append(results, res)
	}

	printReport(os.Stdout, results)

	if o.out != "" {
		for _, r := range results {
			path := outputPath(o.out, r.method, len(results) > 1)
			if err := imageio.Save(path, r.x); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}
	}

	if len(results) < len(entries) {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.Out = w
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	log.Level = logrus.WarnLevel
	if verbose {
		log.Level = logrus.DebugLevel
	}

	return log
}

func printList(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range registry {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", e.name, e.desc); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write list: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func resolveEntries(names []string, log logrus.FieldLogger) []methodEntry {
	if len(names) == 0 {
		return append([]methodEntry(nil), registry...)
	}

	byName := make(map[string]methodEntry, len(registry))
	for _, e := range registry {
		byName[e.name] = e
	}

	var result []methodEntry
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		e, ok := byName[name]
		if !ok {
			log.WithField("method", name).Warn("unknown method (use -list to see available)")
			continue
		}
		result = append(result, e)
	}

	return result
}

// prepare loads or synthesizes the ground truth, blurs it and adds noise.
func prepare(o options) (*problem, error) {
	var (
		truth *core.Image
		err   error
	)

	if o.in != "" {
		truth, err = imageio.LoadFit(o.in, o.size)
	} else {
		truth, err = signal.Pattern(o.pattern, o.size, o.size)
	}
	if err != nil {
		return nil, err
	}

	op, err := blur.NewOperator(truth.Rows, truth.Cols, o.diameter, o.sigma)
	if err != nil {
		return nil, err
	}

	blurred, err := op.Forward(truth)
	if err != nil {
		return nil, err
	}

	observed, noiseNorm, err := signal.NewGenerator(signal.WithSeed(o.seed)).Corrupt(blurred, o.noise)
	if err != nil {
		return nil, err
	}

	selectNorm := noiseNorm
	if o.estimate {
		if selectNorm, err = signal.EstimateNoiseNorm(observed); err != nil {
			return nil, err
		}
	}

	return &problem{truth: truth, observed: observed, op: op, noiseNorm: noiseNorm, selectNorm: selectNorm}, nil
}

func run(p *problem, e methodEntry, o options, log logrus.FieldLogger) (outcome, error) {
	lambda := e.defLambda
	if e.hasLambda && !math.IsNaN(o.lambda) {
		lambda = o.lambda
	}

	mlog := log.WithField("method", e.name)
	solverOpts := []descent.Option{
		descent.WithMaxIterations(o.iter),
		descent.WithTolerance(o.tol),
		descent.WithGroundTruth(p.truth),
		descent.WithLogger(mlog),
	}

	var (
		out outcome
		err error
	)

	switch {
	case e.name == "spectral":
		out, err = runSpectral(p, lambda)
	case e.selects:
		out, err = runSelection(p, e, o, solverOpts, mlog)
	default:
		out, err = runDescent(p, e, lambda, o.mu, solverOpts)
	}
	if err != nil {
		return outcome{}, err
	}
	out.method = e.name

	rep, err := quality.Evaluate(p.truth, out.x, p.noiseNorm, 1)
	if err != nil {
		return outcome{}, err
	}
	out.report = rep

	return out, nil
}

func runSpectral(p *problem, lambda float64) (outcome, error) {
	x, err := p.op.Deconvolve(p.observed, blur.DeconvOptions{Method: blur.DeconvRegularized, Epsilon: lambda})
	if err != nil {
		return outcome{}, err
	}

	return outcome{lambda: lambda, status: "direct", x: x}, nil
}

func runSelection(p *problem, e methodEntry, o options, solverOpts []descent.Option, log logrus.FieldLogger) (outcome, error) {
	sel, err := selectStrength(p, e, o, solverOpts, log)
	if err != nil {
		return outcome{}, err
	}

	return outcome{
		lambda:     sel.Lambda,
		iterations: o.iter,
		status:     fmt.Sprintf("%d steps", sel.Steps),
		x:          sel.X,
	}, nil
}

func runDescent(p *problem, e methodEntry, lambda, mu float64, solverOpts []descent.Option) (outcome, error) {
	f, err := family(p.op, e.name, lambda, mu)
	if err != nil {
		return outcome{}, err
	}

	x0 := p.observed
	if e.zeroStart {
		x0 = p.observed.ZerosLike()
	}
	if e.name == "truncated" {
		solverOpts = append(solverOpts, descent.WithPolicy(descent.Truncated))
	}

	res, err := descent.Solve(f, x0, p.observed, solverOpts...)
	if err != nil {
		return outcome{}, err
	}

	out := outcome{lambda: math.NaN(), iterations: res.Iterations, status: res.Status.String(), x: res.X}
	if e.hasLambda {
		out.lambda = lambda
	}
	if e.name == "truncated" {
		out.status = fmt.Sprintf("best %d", res.BestIndex)
	}

	return out, nil
}

func family(op objective.Operator, name string, lambda, mu float64) (*objective.Objective, error) {
	switch name {
	case "naive", "truncated":
		return objective.Plain(op), nil
	case "tikhonov":
		return objective.Tikhonov(op, lambda)
	case "lasso":
		return objective.Lasso(op, lambda)
	case "elastic":
		return objective.ElasticNet(op, lambda, mu)
	default:
		return nil, fmt.Errorf("no objective for method %q", name)
	}
}

func selectStrength(p *problem, e methodEntry, o options, solverOpts []descent.Option, log logrus.FieldLogger) (discrepancy.Selection, error) {
	opts := []discrepancy.Option{
		discrepancy.WithSolverOptions(solverOpts...),
		discrepancy.WithLogger(log),
	}
	if e.name == "discrepancy-elastic" {
		opts = append(opts,
			discrepancy.WithElasticNet(o.mu),
			discrepancy.WithSemiconvergenceTruncation(),
		)
	}

	s, err := discrepancy.New(p.op, p.selectNorm, opts...)
	if err != nil {
		return discrepancy.Selection{}, err
	}

	sel, err := s.Select(p.observed, o.iter)
	if errors.Is(err, discrepancy.ErrNonConvergence) {
		return sel, fmt.Errorf("%w (try a larger -noise or -iter)", err)
	}

	return sel, err
}

func printReport(w io.Writer, results []outcome) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Method\tLambda\tIterations\tStatus\tRel. Error\tSNR [dB]\tPSNR [dB]\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}
	if _, err := fmt.Fprintf(tw, "------\t------\t----------\t------\t----------\t--------\t---------\n"); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output header: %v\n", err)
		return
	}

	for _, r := range results {
		lambda := "-"
		if !math.IsNaN(r.lambda) {
			lambda = fmt.Sprintf("%.4g", r.lambda)
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.4f\t%.2f\t%.2f\n",
			r.method,
			lambda,
			r.iterations,
			r.status,
			r.report.RelativeError,
			r.report.SNR_dB,
			r.report.PSNR_dB,
		); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write output row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

// outputPath inserts "-method" before the extension when several images are
// written.
func outputPath(path, method string, multi bool) string {
	if !multi {
		return path
	}

	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + method + ext
}
