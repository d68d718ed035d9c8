package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/geojson"

	"generalize-service/geometry"
	"generalize-service/model"
)

// Feature properties carrying the engine's feature identity.
const (
	propClassID     = "classId"
	propObjectID    = "objectId"
	propXYTolerance = "xyTolerance"
)

// loadFeatures loads every feature of the GeoJSON files matching patterns.
// Features without an objectId are numbered in load order after the largest
// explicit objectId of their class. Duplicate explicit ids are rejected.
func loadFeatures(logger *slog.Logger, patterns ...string) ([]*model.Feature, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %s", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.Newf("no files match %s", pattern)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	var (
		features   []*model.Feature
		unnumbered []*model.Feature
		seen       = make(map[model.FeatureRef]string)
		maxID      = make(map[int64]int64)
	)
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", file)
		}

		for i, f := range fc.Features {
			shape, err := geometry.FromOrb(f.Geometry)
			if err != nil {
				return nil, errors.Wrapf(err, "%s feature %d", file, i)
			}
			feature := &model.Feature{
				Ref:         model.FeatureRef{ClassID: int64(f.Properties.MustInt(propClassID, 0))},
				Shape:       shape,
				XYTolerance: f.Properties.MustFloat64(propXYTolerance, 0),
			}
			features = append(features, feature)
			if _, ok := f.Properties[propObjectID]; !ok {
				unnumbered = append(unnumbered, feature)
				continue
			}
			feature.Ref.ObjectID = int64(f.Properties.MustInt(propObjectID, 0))
			if prev, ok := seen[feature.Ref]; ok {
				return nil, errors.Newf("%s feature %d: duplicate feature %s, first seen in %s", file, i, feature.Ref, prev)
			}
			seen[feature.Ref] = file
			if id := feature.Ref.ObjectID; id > maxID[feature.Ref.ClassID] {
				maxID[feature.Ref.ClassID] = id
			}
		}
		logger.Info("features loaded", slog.String("file", filepath.Base(file)), slog.Int("features", len(fc.Features)))
	}
	for _, f := range unnumbered {
		maxID[f.Ref.ClassID]++
		f.Ref.ObjectID = maxID[f.Ref.ClassID]
	}
	return features, nil
}

// writeFeatures writes features as a GeoJSON feature collection. Curves are
// densified with each feature's tolerance.
func writeFeatures(path string, features []*model.Feature) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(geometry.ToOrb(f.Shape, f.Tolerance()))
		gf.Properties[propClassID] = f.Ref.ClassID
		gf.Properties[propObjectID] = f.Ref.ObjectID
		if f.XYTolerance > 0 {
			gf.Properties[propXYTolerance] = f.XYTolerance
		}
		fc.Append(gf)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "encoding features")
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
