package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"generalize-service/generalize"
	"generalize-service/model"
)

var (
	outputPath     string
	remoteAddr     string
	targetPatterns []string
	hiddenTargets  bool
	sessionName    string
)

func addWeedFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&targetPatterns, "targets", nil, "GeoJSON files with features that protect shared vertices")
	f.BoolVar(&hiddenTargets, "hidden-targets", false, "Treat targets as hidden, only used with --scope all")
	f.Float64("tolerance", 0, "Weed tolerance, zero disables weeding")
	f.Float64("min-segment", 0, "Minimum segment length, zero disables short segment removal")
	f.Bool("length-3d", false, "Measure segment length in 3D")
	f.Bool("weed-3d", false, "Measure weed distances in 3D")
	f.Bool("topological", true, "Protect vertices shared with other features")
	f.Bool("same-class", false, "Only features of the same class protect vertices")
	f.Bool("weed-non-linear", false, "Linearize and weed arcs and beziers")
	f.Float64("crack-tolerance", 0, "Tolerance for shared vertex detection, zero uses the feature tolerance")
	f.String("scope", "", "Target scope: selected, visible or all")
	f.String("intersection-points", "", "Linear intersection points to protect: allPoints or endpoints")
	f.StringVar(&sessionName, "session", "", "Keep the calculation on the server under this session")
}

// requestOptions applies the flags the user set over the configured defaults.
func requestOptions(cmd *cobra.Command) (generalize.Options, error) {
	opts := cfg.Engine.Defaults
	f := cmd.Flags()
	var err error
	if f.Changed("tolerance") {
		opts.WeedTolerance, _ = f.GetFloat64("tolerance")
	}
	if f.Changed("min-segment") {
		opts.MinimumSegmentLength, _ = f.GetFloat64("min-segment")
	}
	if f.Changed("length-3d") {
		use3D, _ := f.GetBool("length-3d")
		opts.Use2DLength = !use3D
	}
	if f.Changed("weed-3d") {
		opts.Weed3D, _ = f.GetBool("weed-3d")
	}
	if f.Changed("topological") {
		opts.ProtectTopologicalVertices, _ = f.GetBool("topological")
	}
	if f.Changed("same-class") {
		opts.ProtectOnlyWithinSameClass, _ = f.GetBool("same-class")
	}
	if f.Changed("weed-non-linear") {
		opts.WeedNonLinearSegments, _ = f.GetBool("weed-non-linear")
	}
	if f.Changed("crack-tolerance") {
		opts.CrackTolerance, _ = f.GetFloat64("crack-tolerance")
	}
	if f.Changed("scope") {
		scope, _ := f.GetString("scope")
		if err = opts.TargetScope.UnmarshalText([]byte(scope)); err != nil {
			return opts, err
		}
	}
	if f.Changed("intersection-points") {
		points, _ := f.GetString("intersection-points")
		if err = opts.IntersectionPoints.UnmarshalText([]byte(points)); err != nil {
			return opts, err
		}
	}
	return opts, opts.Validate()
}

func loadInputs(sources []string) ([]*model.Feature, []generalize.Target, error) {
	features, err := loadFeatures(logger, sources...)
	if err != nil {
		return nil, nil, err
	}
	var targets []generalize.Target
	if len(targetPatterns) > 0 {
		loaded, err := loadFeatures(logger, targetPatterns...)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range loaded {
			targets = append(targets, generalize.Target{Feature: f, Visible: !hiddenTargets})
		}
	}
	return features, targets, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWeed(cmd *cobra.Command, args []string) error {
	opts, err := requestOptions(cmd)
	if err != nil {
		return err
	}
	sources, targets, err := loadInputs(args)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	engine := generalize.NewEngine(logger, cfg.Engine.Workers)
	calc, err := engine.CalculateRemovableSegments(ctx, sources, targets, opts)
	if err != nil {
		return err
	}
	app, err := engine.ApplySegmentRemoval(ctx, sources, calc.Removable, targets, opts)
	if err != nil {
		return err
	}

	notes := append(calc.Notifications, app.Notifications...)
	if summary := notes.Summary(); summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}
	logger.Info("weed finished",
		slog.Int("updated", len(app.Updated)),
		slog.Int("affected", len(app.Affected)),
		slog.String("output", outputPath))
	return writeFeatures(outputPath, append(app.Updated, app.Affected...))
}
