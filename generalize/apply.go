package generalize

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"generalize-service/geometry"
	"generalize-service/model"
	"generalize-service/removal"
)

// Application is the result of ApplySegmentRemoval. Features are new
// snapshots keyed by the original references.
type Application struct {
	Updated []*model.Feature
	// Affected holds target features that lost vertices shared with an
	// updated feature.
	Affected      []*model.Feature
	Notifications Notifications
}

// ApplySegmentRemoval removes the calculated points and short segments from
// the source features. Unless topological vertices are protected, removed
// coordinates are also removed from the targets sharing them.
func (e *Engine) ApplySegmentRemoval(ctx context.Context, sources []*model.Feature, removable *model.RemovableSegments, targets []Target, opts Options) (*Application, error) {
	if removable == nil {
		return nil, errors.Wrap(ErrNilParameter, "removable segments")
	}

	out := &Application{}
	affected := make(map[model.FeatureRef]*model.Feature)
	var affectedOrder []model.FeatureRef
	sourceRefs := make(map[model.FeatureRef]bool, len(sources))
	for _, f := range sources {
		if f == nil {
			return nil, errors.Wrap(ErrNilParameter, "source feature")
		}
		sourceRefs[f.Ref] = true
	}

	for _, f := range sources {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(errors.Wrap(err, "applying segment removal"))
		}
		if _, err := f.Shape.MultipartParts(); err != nil && !f.Shape.IsNull() {
			return nil, errors.Wrapf(err, "feature %s", f.Ref)
		}

		g, ok := removable.Get(f.Ref)
		if !ok || g.IsEmpty() {
			out.Notifications.Add(f.Ref, "no removable segments")
			continue
		}

		tolerance := f.Tolerance()
		shape := f.Shape
		if opts.WeedNonLinearSegments {
			shape = shape.Linearize(tolerance)
		}

		protected := geometry.NewVertexSet(0)
		for _, p := range g.ProtectedPoints {
			protected.Add(p)
		}

		updated, res := removal.RemovePoints(shape, g.DeletablePoints, tolerance)
		updated, shortRes := removal.RemoveShortSegments(updated, g.ShortSegments, tolerance, protected.Contains)
		e.notifyRemoval(&out.Notifications, f.Ref, res, shortRes)

		out.Updated = append(out.Updated, &model.Feature{
			Ref:         f.Ref,
			Shape:       updated,
			XYTolerance: f.XYTolerance,
			ZTolerance:  f.ZTolerance,
		})

		if opts.ProtectTopologicalVertices {
			continue
		}
		removed := removedVertices(shape, updated)
		if len(removed) == 0 {
			continue
		}
		for _, t := range targets {
			if t.Feature == nil || sourceRefs[t.Feature.Ref] || t.Feature.Shape.IsEmpty() {
				continue
			}
			if opts.ProtectOnlyWithinSameClass && t.Feature.Ref.ClassID != f.Ref.ClassID {
				continue
			}
			current, seen := affected[t.Feature.Ref]
			if !seen {
				current = t.Feature
			}
			neighbourTolerance := current.Tolerance()
			if tolerance > neighbourTolerance {
				neighbourTolerance = tolerance
			}
			next, nres := removal.RemovePoints(current.Shape, removed, neighbourTolerance)
			if nres.Removed == 0 {
				continue
			}
			if !seen {
				affectedOrder = append(affectedOrder, t.Feature.Ref)
			}
			affected[t.Feature.Ref] = &model.Feature{
				Ref:         current.Ref,
				Shape:       next,
				XYTolerance: current.XYTolerance,
				ZTolerance:  current.ZTolerance,
			}
			e.logger().Debug("neighbour updated",
				slog.String("feature", current.Ref.String()),
				slog.String("source", f.Ref.String()),
				slog.Int("removed", nres.Removed))
		}
	}

	for _, ref := range affectedOrder {
		out.Affected = append(out.Affected, affected[ref])
	}
	e.logger().Info("segment removal applied",
		slog.Int("updated", len(out.Updated)),
		slog.Int("affected", len(out.Affected)),
		slog.Int("notifications", len(out.Notifications)))
	return out, nil
}

func (e *Engine) notifyRemoval(notes *Notifications, ref model.FeatureRef, results ...removal.Result) {
	var retained, missing, collapsed int
	for _, r := range results {
		retained += r.Retained
		missing += r.Missing
		collapsed += r.CollapsedRings
	}
	if retained > 0 {
		e.logger().Debug("vertices kept for minimum vertex count",
			slog.String("feature", ref.String()), slog.Int("retained", retained))
		notes.Add(ref, "%d vertices kept to preserve the minimum vertex count", retained)
	}
	if missing > 0 {
		notes.Add(ref, "%d short segments no longer found", missing)
	}
	if collapsed > 0 {
		notes.Add(ref, "%d rings have no area after removal", collapsed)
	}
}

// removedVertices returns the coordinates of before that are missing from
// after, as often as they went missing.
func removedVertices(before, after geometry.Shape) []geometry.Vertex {
	remaining := make(map[geometry.Vertex]int)
	for _, p := range after.Parts {
		for _, v := range openPart(p, after.Kind) {
			remaining[v]++
		}
	}
	var removed []geometry.Vertex
	for _, p := range before.Parts {
		for _, v := range openPart(p, before.Kind) {
			if remaining[v] > 0 {
				remaining[v]--
				continue
			}
			removed = append(removed, v)
		}
	}
	return removed
}

func openPart(p geometry.Part, kind geometry.Kind) []geometry.Vertex {
	if kind == geometry.KindPolygon && p.IsClosed() {
		return p.Vertices[:len(p.Vertices)-1]
	}
	return p.Vertices
}
