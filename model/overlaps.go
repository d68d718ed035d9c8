package model

import (
	"encoding/json"
	"sort"

	"generalize-service/geometry"
)

// Overlaps maps source features to geometries found to be shared with other
// features, one polyline per shared stretch. The geometries are owned, the
// features are only referenced.
type Overlaps struct {
	byRef map[FeatureRef][]geometry.Shape
}

func NewOverlaps() *Overlaps {
	return &Overlaps{byRef: make(map[FeatureRef][]geometry.Shape)}
}

// Add appends shapes for ref.
func (o *Overlaps) Add(ref FeatureRef, shapes ...geometry.Shape) {
	if len(shapes) == 0 {
		return
	}
	if o.byRef == nil {
		o.byRef = make(map[FeatureRef][]geometry.Shape)
	}
	o.byRef[ref] = append(o.byRef[ref], shapes...)
}

// Merge adds everything from other.
func (o *Overlaps) Merge(other *Overlaps) {
	for ref, shapes := range other.byRef {
		o.Add(ref, shapes...)
	}
}

// Get returns the shapes of ref.
func (o *Overlaps) Get(ref FeatureRef) []geometry.Shape {
	return o.byRef[ref]
}

// Refs returns the features with overlaps in order.
func (o *Overlaps) Refs() []FeatureRef {
	refs := make([]FeatureRef, 0, len(o.byRef))
	for ref := range o.byRef {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

func (o *Overlaps) Len() int {
	return len(o.byRef)
}

// IsEmpty reports whether no overlap was recorded.
func (o *Overlaps) IsEmpty() bool {
	return len(o.byRef) == 0
}

type overlapEntry struct {
	Ref        FeatureRef       `json:"ref"`
	Geometries []geometry.Shape `json:"geometries"`
}

func (o *Overlaps) MarshalJSON() ([]byte, error) {
	refs := o.Refs()
	entries := make([]overlapEntry, len(refs))
	for i, ref := range refs {
		entries[i] = overlapEntry{Ref: ref, Geometries: o.byRef[ref]}
	}
	return json.Marshal(entries)
}

func (o *Overlaps) UnmarshalJSON(data []byte) error {
	var entries []overlapEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	o.byRef = make(map[FeatureRef][]geometry.Shape, len(entries))
	for _, e := range entries {
		o.Add(e.Ref, e.Geometries...)
	}
	return nil
}
