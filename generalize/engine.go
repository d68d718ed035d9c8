package generalize

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"generalize-service/model"
	"generalize-service/protect"
	"generalize-service/removal"
	"generalize-service/spatial"
	"generalize-service/weed"
)

// Engine runs generalize calculations. It holds no per-request state and
// may be shared between goroutines.
type Engine struct {
	Logger *slog.Logger
	// Workers limits parallel per-feature weeding. Zero uses GOMAXPROCS.
	Workers int
}

// NewEngine creates an engine.
func NewEngine(logger *slog.Logger, workers int) *Engine {
	return &Engine{Logger: logger, Workers: workers}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Calculation is the result of CalculateRemovableSegments.
type Calculation struct {
	Removable     *model.RemovableSegments
	Overlaps      *model.Overlaps
	Notifications Notifications
}

// cancelled marks a context error so callers can detect it with
// errors.Is(err, ErrCancelled).
func cancelled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(err, ErrCancelled)
	}
	return err
}

// CalculateRemovableSegments computes protected points, deletable points
// and short segments for every source feature. Protection is calculated for
// all features before any feature is weeded. Sources are never modified.
func (e *Engine) CalculateRemovableSegments(ctx context.Context, sources []*model.Feature, targets []Target, opts Options) (*Calculation, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	infos, err := model.Build(sources, opts.WeedNonLinearSegments)
	if err != nil {
		return nil, errors.Wrap(err, "building vertex model")
	}

	index, err := buildIndex(sources, targets)
	if err != nil {
		return nil, err
	}

	calc := &protect.Calculator{
		Finder: index,
		Options: protect.Options{
			Scope:                     opts.TargetScope,
			CrackTolerance:            opts.CrackTolerance,
			IntersectionPoints:        opts.IntersectionPoints,
			Topological:               opts.ProtectTopologicalVertices,
			SameClassOnly:             opts.ProtectOnlyWithinSameClass,
			ProtectNonLinearEndpoints: !opts.WeedNonLinearSegments,
		},
		Logger: e.logger(),
	}
	overlaps, err := calc.Calculate(ctx, infos)
	if err != nil {
		return nil, cancelled(errors.Wrap(err, "calculating protected points"))
	}

	results := make([]*model.GeneralizedFeature, len(infos))
	notes := make([]Notifications, len(infos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, info := range infos {
		i, info := i, info
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.WithStack(err)
			}
			results[i], notes[i] = e.calculateFeature(info, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cancelled(errors.Wrap(err, "weeding"))
	}

	out := &Calculation{Removable: model.NewRemovableSegments(), Overlaps: overlaps}
	deleted := 0
	for i, r := range results {
		out.Removable.Add(r)
		out.Notifications = append(out.Notifications, notes[i]...)
		deleted += len(r.DeletablePoints)
	}

	e.logger().Info("removable segments calculated",
		slog.Int("features", len(infos)),
		slog.Int("deletablePoints", deleted),
		slog.Int("notifications", len(out.Notifications)),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// calculateFeature weeds one feature and finds its short segments. info is
// owned exclusively by the calling goroutine.
func (e *Engine) calculateFeature(info *model.FeatureVertexInfo, opts Options) (*model.GeneralizedFeature, Notifications) {
	var notes Notifications
	ref := info.Ref()
	result := &model.GeneralizedFeature{Ref: ref, ProtectedPoints: info.CrackPoints()}
	if len(info.Parts) == 0 {
		notes.Add(ref, "feature has no geometry")
		return result, notes
	}

	weeded := weed.Calculate(info, weed.Options{
		Tolerance:             opts.WeedTolerance,
		Use3D:                 opts.Weed3D,
		WeedNonLinearSegments: opts.WeedNonLinearSegments,
	})
	if weeded.Restored > 0 {
		e.logger().Debug("vertices kept for minimum ring size",
			slog.String("feature", ref.String()), slog.Int("restored", weeded.Restored))
		notes.Add(ref, "%d vertices kept to preserve the minimum vertex count", weeded.Restored)
	}
	result.DeletablePoints = info.PointsToDelete()

	if opts.MinimumSegmentLength > 0 {
		shape, _ := removal.RemovePoints(info.Shape(), info.PointsToDelete(), info.Tolerance)
		result.ShortSegments = removal.FindShortSegments(shape, opts.MinimumSegmentLength, opts.Use2DLength, info.IsCrackPoint)
	}

	if result.IsEmpty() {
		notes.Add(ref, "nothing to weed")
	}
	e.logger().Debug("feature weeded",
		slog.String("feature", ref.String()),
		slog.Int("vertices", info.VertexCount()),
		slog.Int("crackPoints", info.CrackPointCount()),
		slog.Int("deletable", len(result.DeletablePoints)),
		slog.Int("shortSegments", len(result.ShortSegments)))
	return result, notes
}

func buildIndex(sources []*model.Feature, targets []Target) (*spatial.Index, error) {
	index := spatial.NewIndex()
	selected := make(map[model.FeatureRef]bool, len(sources))
	for _, f := range sources {
		if err := index.Insert(f, spatial.RoleSelected); err != nil {
			return nil, err
		}
		selected[f.Ref] = true
	}
	for _, t := range targets {
		if t.Feature == nil {
			return nil, errors.Wrap(ErrNilParameter, "target feature")
		}
		if selected[t.Feature.Ref] {
			continue
		}
		role := spatial.RoleHidden
		if t.Visible {
			role = spatial.RoleVisible
		}
		if err := index.Insert(t.Feature, role); err != nil {
			return nil, err
		}
	}
	return index, nil
}
