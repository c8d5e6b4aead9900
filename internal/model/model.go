// Package model represents one extracted decision tree (or rule list) and
// its JSON encoding, the external interface the solver's result crosses
// into caller-facing output.
//
// Grounded on the original's model.hpp (terminal vs. non-terminal node
// shape, loss/complexity accounting) and extraction/models.cpp (the
// recursive Cartesian-product / rule-list combination that builds a set of
// equally-optimal models from a vertex's bounds table).
package model

import (
	"encoding/json"
	"strconv"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/dataset"
)

// Model is one node of an extracted tree. A terminal Model is a leaf
// carrying a prediction, loss, and complexity penalty; a non-terminal
// Model splits on Feature (an original, not binarized, column index) into
// Negative and Positive subtrees.
type Model struct {
	Terminal bool

	// Leaf fields.
	Prediction string
	Loss       float64
	Complexity float64

	// Internal-node fields.
	Feature  uint
	Negative *Model
	Positive *Model
}

// NewLeaf builds a terminal Model predicting the lowest-cost label for the
// rows captured by capture (summary_statistics' argmin-cost target index),
// with loss equal to the best achievable single-leaf misclassification
// cost and complexity equal to regularization (one leaf's share of the
// penalty term).
func NewLeaf(ds *dataset.Dataset, capture, work *bitset.Bitset, regularization float64) *Model {
	stats := ds.SummaryStatistics(capture, work)
	return &Model{
		Terminal:   true,
		Prediction: strconv.FormatUint(uint64(stats.OptimalFeature), 10),
		Loss:       stats.MaxLoss,
		Complexity: regularization,
	}
}

// NewSplit builds a non-terminal Model splitting on originalFeature.
func NewSplit(originalFeature uint, negative, positive *Model) *Model {
	return &Model{Feature: originalFeature, Negative: negative, Positive: positive}
}

// TotalLoss returns the sum of leaf losses across the whole (sub)tree.
func (m *Model) TotalLoss() float64 {
	if m.Terminal {
		return m.Loss
	}
	return m.Negative.TotalLoss() + m.Positive.TotalLoss()
}

// TotalComplexity returns the sum of leaf complexity penalties across the
// whole (sub)tree — lambda times the number of leaves.
func (m *Model) TotalComplexity() float64 {
	if m.Terminal {
		return m.Complexity
	}
	return m.Negative.TotalComplexity() + m.Positive.TotalComplexity()
}

// Objective returns TotalLoss + TotalComplexity, the quantity the solver
// minimizes.
func (m *Model) Objective() float64 { return m.TotalLoss() + m.TotalComplexity() }

// leafJSON and nodeJSON mirror spec.md's per-element schema exactly:
// a leaf is {"prediction", "name", "loss", "complexity"}; an internal node
// is {"feature", "name", "relation", "reference", "true", "false"}.
type leafJSON struct {
	Prediction string  `json:"prediction"`
	Name       string  `json:"name"`
	Loss       float64 `json:"loss"`
	Complexity float64 `json:"complexity"`
}

type nodeJSON struct {
	Feature   uint            `json:"feature"`
	Name      string          `json:"name"`
	Relation  string          `json:"relation"`
	Reference int             `json:"reference"`
	True      json.RawMessage `json:"true"`
	False     json.RawMessage `json:"false"`
}

// MarshalJSON renders the model as spec.md §6's schema. featureName, when
// non-nil, names a feature by its original index (defaults to a numeric
// string).
func (m *Model) MarshalJSON() ([]byte, error) {
	return m.marshal(nil)
}

// MarshalJSONNamed is like MarshalJSON but consults featureName(feature)
// for the "name" field of internal nodes, falling back to a numeric
// rendering when featureName is nil or returns "".
func (m *Model) MarshalJSONNamed(featureName func(feature uint) string) ([]byte, error) {
	return m.marshal(featureName)
}

func (m *Model) marshal(featureName func(uint) string) ([]byte, error) {
	if m.Terminal {
		return json.Marshal(leafJSON{
			Prediction: m.Prediction,
			Name:       m.Prediction,
			Loss:       m.Loss,
			Complexity: m.Complexity,
		})
	}

	negative, err := m.Negative.marshal(featureName)
	if err != nil {
		return nil, err
	}
	positive, err := m.Positive.marshal(featureName)
	if err != nil {
		return nil, err
	}

	name := featureNameOrDefault(featureName, m.Feature)
	return json.Marshal(nodeJSON{
		Feature:   m.Feature,
		Name:      name,
		Relation:  "==",
		Reference: 1,
		True:      positive,
		False:     negative,
	})
}

func featureNameOrDefault(featureName func(uint) string, feature uint) string {
	if featureName != nil {
		if n := featureName(feature); n != "" {
			return n
		}
	}
	return strconv.FormatUint(uint64(feature), 10)
}

// MarshalSet renders a slice of equally-optimal models as a JSON array,
// the Go analogue of the C++ driver's unordered_set<Model> result.
func MarshalSet(models []*Model, featureName func(uint) string) ([]byte, error) {
	rendered := make([]json.RawMessage, len(models))
	for i, m := range models {
		raw, err := m.marshal(featureName)
		if err != nil {
			return nil, err
		}
		rendered[i] = raw
	}
	return json.Marshal(rendered)
}
