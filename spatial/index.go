package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"generalize-service/model"
)

// minSide keeps rtreego from rejecting rectangles of points and of
// horizontal or vertical lines.
const minSide = 1e-9

// Scope selects which features are candidates for protection.
type Scope int

const (
	SelectedFeatures Scope = iota
	VisibleFeatures
	AllFeatures
)

var scopeNames = map[Scope]string{
	SelectedFeatures: "selected",
	VisibleFeatures:  "visible",
	AllFeatures:      "all",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(text []byte) error {
	for scope, name := range scopeNames {
		if name == string(text) {
			*s = scope
			return nil
		}
	}
	return errors.Newf("unknown feature scope %q", string(text))
}

// Role tells how a feature is known to the index.
type Role int

const (
	RoleSelected Role = iota
	RoleVisible
	RoleHidden
)

// includes reports whether features of role r are candidates in scope s.
func (s Scope) includes(r Role) bool {
	switch s {
	case SelectedFeatures:
		return r == RoleSelected
	case VisibleFeatures:
		return r == RoleSelected || r == RoleVisible
	default:
		return true
	}
}

// entry wraps a feature for R-tree storage
type entry struct {
	feature *model.Feature
	role    Role
	bbox    rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *entry) Bounds() rtreego.Rect {
	return e.bbox
}

// Index answers candidate queries over a read-only snapshot of features.
type Index struct {
	tree  *rtreego.Rtree
	count int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)} // 2D, min 25, max 50 entries per node
}

// Insert adds a feature with the given role. Features without geometry are
// skipped.
func (idx *Index) Insert(f *model.Feature, role Role) error {
	if f == nil {
		return errors.WithStack(model.ErrNilParameter)
	}
	if f.Shape.IsEmpty() {
		return nil
	}
	rect, err := toRect(f.Shape.Bound())
	if err != nil {
		return errors.Wrapf(err, "indexing feature %s", f.Ref)
	}
	idx.tree.Insert(&entry{feature: f, role: role, bbox: rect})
	idx.count++
	return nil
}

// Len returns the number of indexed features.
func (idx *Index) Len() int {
	return idx.count
}

// FindCandidates returns the features in scope whose envelope intersects
// bound, ordered by feature reference.
func (idx *Index) FindCandidates(bound orb.Bound, scope Scope) []*model.Feature {
	rect, err := toRect(bound)
	if err != nil {
		return nil
	}

	results := idx.tree.SearchIntersect(rect)
	features := make([]*model.Feature, 0, len(results))
	for _, item := range results {
		e := item.(*entry)
		if scope.includes(e.role) {
			features = append(features, e.feature)
		}
	}
	sortFeatures(features)
	return features
}

func toRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{math.Max(b.Max[0]-b.Min[0], minSide), math.Max(b.Max[1]-b.Min[1], minSide)},
	)
}

func sortFeatures(features []*model.Feature) {
	sort.SliceStable(features, func(i, j int) bool { return features[i].Ref.Less(features[j].Ref) })
}
