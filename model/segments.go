package model

import (
	"encoding/json"
	"sort"

	"generalize-service/geometry"
)

// SegmentInfo identifies one segment of a feature. The endpoint coordinates
// allow re-identifying the segment when the geometry was fetched again and
// its indexes shifted.
type SegmentInfo struct {
	From geometry.Vertex `json:"from"`
	To   geometry.Vertex `json:"to"`
	// AbsoluteIndex counts segments over all parts.
	AbsoluteIndex int `json:"absoluteIndex"`
	PartIndex     int `json:"partIndex"`
	// RelativeIndex is the segment index within its part.
	RelativeIndex int     `json:"relativeIndex"`
	Length        float64 `json:"length"`
}

// GeneralizedFeature is the calculation result for one source feature.
type GeneralizedFeature struct {
	Ref             FeatureRef        `json:"ref"`
	ProtectedPoints []geometry.Vertex `json:"protectedPoints,omitempty"`
	DeletablePoints []geometry.Vertex `json:"deletablePoints,omitempty"`
	ShortSegments   []SegmentInfo     `json:"shortSegments,omitempty"`
}

// IsEmpty reports whether nothing can be removed from the feature.
func (g *GeneralizedFeature) IsEmpty() bool {
	return len(g.DeletablePoints) == 0 && len(g.ShortSegments) == 0
}

// RemovableSegments maps source features to their calculation result.
type RemovableSegments struct {
	byRef map[FeatureRef]*GeneralizedFeature
}

func NewRemovableSegments() *RemovableSegments {
	return &RemovableSegments{byRef: make(map[FeatureRef]*GeneralizedFeature)}
}

// Add stores g, replacing an earlier result for the same feature.
func (r *RemovableSegments) Add(g *GeneralizedFeature) {
	if r.byRef == nil {
		r.byRef = make(map[FeatureRef]*GeneralizedFeature)
	}
	r.byRef[g.Ref] = g
}

// Get returns the result for ref.
func (r *RemovableSegments) Get(ref FeatureRef) (*GeneralizedFeature, bool) {
	g, ok := r.byRef[ref]
	return g, ok
}

// Len returns the number of features.
func (r *RemovableSegments) Len() int {
	return len(r.byRef)
}

// Refs returns the feature references in order.
func (r *RemovableSegments) Refs() []FeatureRef {
	refs := make([]FeatureRef, 0, len(r.byRef))
	for ref := range r.byRef {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// All returns the results ordered by feature reference.
func (r *RemovableSegments) All() []*GeneralizedFeature {
	refs := r.Refs()
	out := make([]*GeneralizedFeature, len(refs))
	for i, ref := range refs {
		out[i] = r.byRef[ref]
	}
	return out
}

// MarshalJSON encodes the results as a list.
func (r *RemovableSegments) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.All())
}

func (r *RemovableSegments) UnmarshalJSON(data []byte) error {
	var list []*GeneralizedFeature
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	r.byRef = make(map[FeatureRef]*GeneralizedFeature, len(list))
	for _, g := range list {
		if g != nil {
			r.byRef[g.Ref] = g
		}
	}
	return nil
}
