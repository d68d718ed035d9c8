package service

import (
	"generalize-service/generalize"
	"generalize-service/model"
)

// TargetFeature is a feature that is considered for protection but never
// edited.
type TargetFeature struct {
	Feature *model.Feature `json:"feature"`
	Visible bool           `json:"visible"`
}

type CalculateRequest struct {
	// Session, when set, keeps the result on the server and returns a token
	// that a later apply request can reference.
	Session string              `json:"session,omitempty"`
	Sources []*model.Feature    `json:"sources"`
	Targets []TargetFeature     `json:"targets,omitempty"`
	Options *generalize.Options `json:"options,omitempty"`
}

type CalculateResponse struct {
	Token         string                   `json:"token,omitempty"`
	Removable     *model.RemovableSegments `json:"removable"`
	Overlaps      *model.Overlaps          `json:"overlaps,omitempty"`
	Notifications generalize.Notifications `json:"notifications,omitempty"`
	Summary       string                   `json:"summary,omitempty"`
}

type ApplyRequest struct {
	Sources []*model.Feature `json:"sources"`
	// Token references a stored calculation. Removable takes precedence
	// when both are set.
	Token     string                   `json:"token,omitempty"`
	Removable *model.RemovableSegments `json:"removable,omitempty"`
	Targets   []TargetFeature          `json:"targets,omitempty"`
	Options   *generalize.Options      `json:"options,omitempty"`
}

type ApplyResponse struct {
	Updated       []*model.Feature         `json:"updated"`
	Affected      []*model.Feature         `json:"affected,omitempty"`
	Notifications generalize.Notifications `json:"notifications,omitempty"`
	Summary       string                   `json:"summary,omitempty"`
}

// ClearRequest drops the stored calculations of one session, or of all
// sessions when All is set.
type ClearRequest struct {
	Session string `json:"session,omitempty"`
	All     bool   `json:"all,omitempty"`
}

type ClearResponse struct {
	Remaining int `json:"remaining"`
}

func toTargets(in []TargetFeature) []generalize.Target {
	if len(in) == 0 {
		return nil
	}
	out := make([]generalize.Target, len(in))
	for i, t := range in {
		out[i] = generalize.Target{Feature: t.Feature, Visible: t.Visible}
	}
	return out
}
