// Package dataset provides the immutable, bitmask-backed view of training
// data the solver's Task and Optimizer operate over: row/column bitmasks
// for features and one-hot targets, a per-target cost matrix and its
// derived scalars, a cost-minimizing majority bitmask, an optional
// reference-model bitmask set, and the original-feature map.
//
// Grounded line-for-line on the original's dataset.cpp.
package dataset

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vishalbelsare/gosdt-guesses/internal/bitset"
	"github.com/vishalbelsare/gosdt-guesses/internal/errs"
)

// Dataset is immutable after construction.
type Dataset struct {
	numRows     uint
	numFeatures uint
	numTargets  uint

	rowFeatures []*bitset.Bitset // length numRows, each size numFeatures
	rowTargets  []*bitset.Bitset // length numRows, each size numTargets
	colFeatures []*bitset.Bitset // length numFeatures, each size numRows
	colTargets  []*bitset.Bitset // length numTargets, each size numRows

	majority *bitset.Bitset // size numRows

	costMatrix    [][]float64 // numTargets x numTargets, costMatrix[predicted][truth]
	matchCosts    []float64   // length numTargets
	mismatchCosts []float64   // length numTargets
	diffCosts     []float64   // length numTargets

	referenceTargets []*bitset.Bitset // optional, length numTargets, each size numRows

	// featureMap[original] is the set of binarized feature indices derived
	// from original feature `original`.
	featureMap []*roaring.Bitmap
}

// SummaryStatistics is the six-tuple returned by Dataset.SummaryStatistics.
type SummaryStatistics struct {
	Information       float64
	Potential         float64
	MaxLoss           float64
	MinLoss           float64
	GuaranteedMinLoss float64
	OptimalFeature    uint
}

// New constructs a Dataset without a reference model.
//
// input is a row-major [numRows][numFeatures+numTargets] boolean matrix
// (feature columns first, then one-hot target columns). costMatrix is
// square with costMatrix[i][j] the cost of predicting label i when the
// truth is label j. featureMap[k] holds the binarized feature indices
// derived from original feature k.
func New(input [][]bool, costMatrix [][]float64, featureMap []*roaring.Bitmap) (*Dataset, error) {
	return build(input, costMatrix, featureMap, nil)
}

// NewWithReference constructs a Dataset carrying an external model's
// predicted labels, enabling reference-model lower bounding.
func NewWithReference(input [][]bool, costMatrix [][]float64, featureMap []*roaring.Bitmap, reference [][]bool) (*Dataset, error) {
	return build(input, costMatrix, featureMap, reference)
}

func build(input [][]bool, costMatrix [][]float64, featureMap []*roaring.Bitmap, reference [][]bool) (*Dataset, error) {
	numRows := len(input)
	if numRows == 0 {
		return nil, errs.ErrEmptyDataset
	}

	numTargets := len(costMatrix)
	if numTargets == 0 {
		return nil, errs.ErrNonSquareCostMatrix
	}
	for _, row := range costMatrix {
		if len(row) != numTargets {
			return nil, errs.ErrNonSquareCostMatrix
		}
	}

	totalCols := len(input[0])
	if totalCols == numTargets || totalCols == 0 {
		return nil, errs.ErrNoFeatureColumns
	}
	numFeatures := totalCols - numTargets

	ds := &Dataset{
		numRows:     uint(numRows),
		numFeatures: uint(numFeatures),
		numTargets:  uint(numTargets),
		featureMap:  featureMap,
	}

	if err := ds.constructBitmasks(input); err != nil {
		return nil, err
	}
	ds.constructCostMatrices(costMatrix)
	if err := ds.constructMajorityBitmask(); err != nil {
		return nil, err
	}

	if reference != nil {
		if len(reference) != numRows {
			return nil, errs.NewReferenceMatrixShape(numRows, numTargets, len(reference), 0)
		}
		for _, row := range reference {
			if len(row) != numTargets {
				return nil, errs.NewReferenceMatrixShape(numRows, numTargets, len(reference), len(row))
			}
		}
		ds.constructReferenceBitmasks(reference)
	}

	return ds, nil
}

func (ds *Dataset) constructBitmasks(input [][]bool) error {
	ds.rowFeatures = make([]*bitset.Bitset, ds.numRows)
	ds.rowTargets = make([]*bitset.Bitset, ds.numRows)
	ds.colFeatures = make([]*bitset.Bitset, ds.numFeatures)
	ds.colTargets = make([]*bitset.Bitset, ds.numTargets)

	for col := uint(0); col < ds.numFeatures; col++ {
		ds.colFeatures[col] = bitset.New(ds.numRows)
	}
	for t := uint(0); t < ds.numTargets; t++ {
		ds.colTargets[t] = bitset.New(ds.numRows)
	}

	for row := uint(0); row < ds.numRows; row++ {
		if uint(len(input[row])) != ds.numFeatures+ds.numTargets {
			return errs.ErrNoFeatureColumns
		}
		rf := bitset.New(ds.numFeatures)
		rt := bitset.New(ds.numTargets)
		for col := uint(0); col < ds.numFeatures; col++ {
			v := input[row][col]
			rf.Set(col, v)
			ds.colFeatures[col].Set(row, v)
		}
		for t := uint(0); t < ds.numTargets; t++ {
			v := input[row][ds.numFeatures+t]
			rt.Set(t, v)
			ds.colTargets[t].Set(row, v)
		}
		ds.rowFeatures[row] = rf
		ds.rowTargets[row] = rt
	}
	return nil
}

func (ds *Dataset) constructCostMatrices(costMatrix [][]float64) {
	ds.costMatrix = costMatrix
	ds.matchCosts = make([]float64, ds.numTargets)
	ds.mismatchCosts = make([]float64, ds.numTargets)
	ds.diffCosts = make([]float64, ds.numTargets)

	for i := uint(0); i < ds.numTargets; i++ {
		maxCost := -math.MaxFloat64
		minCost := math.MaxFloat64
		mismatch := math.MaxFloat64
		for j := uint(0); j < ds.numTargets; j++ {
			c := costMatrix[j][i]
			if c > maxCost {
				maxCost = c
			}
			if c < minCost {
				minCost = c
			}
			if i == j {
				ds.matchCosts[i] = c
			} else if c < mismatch {
				mismatch = c
			}
		}
		ds.mismatchCosts[i] = mismatch
		ds.diffCosts[i] = maxCost - minCost
	}
}

type rowKey string

func keyOf(b *bitset.Bitset) rowKey { return rowKey(b.String()) }

func (ds *Dataset) constructMajorityBitmask() error {
	distributions := make(map[rowKey][]float64)
	for i := uint(0); i < ds.numRows; i++ {
		k := keyOf(ds.rowFeatures[i])
		dist, ok := distributions[k]
		if !ok {
			dist = make([]float64, ds.numTargets)
			distributions[k] = dist
		}
		for j := uint(0); j < ds.numTargets; j++ {
			if ds.rowTargets[i].Get(j) {
				dist[j]++
			}
		}
	}

	minimizers := make(map[rowKey]uint, len(distributions))
	for k, dist := range distributions {
		minCost := math.MaxFloat64
		var minimizer uint
		for i := uint(0); i < ds.numTargets; i++ {
			cost := 0.0
			for j := uint(0); j < ds.numTargets; j++ {
				cost += ds.costMatrix[i][j] * dist[j]
			}
			if cost < minCost {
				minCost = cost
				minimizer = i
			}
		}
		minimizers[k] = minimizer
	}

	ds.majority = bitset.New(ds.numRows)
	for i := uint(0); i < ds.numRows; i++ {
		k := keyOf(ds.rowFeatures[i])
		minimizer := minimizers[k]
		empirical := ds.rowTargets[i].Scan(0, true)
		if empirical >= ds.numTargets {
			return errs.ErrEmptyTargetRow
		}
		ds.majority.Set(i, minimizer == empirical)
	}
	return nil
}

func (ds *Dataset) constructReferenceBitmasks(reference [][]bool) {
	ds.referenceTargets = make([]*bitset.Bitset, ds.numTargets)
	for t := uint(0); t < ds.numTargets; t++ {
		b := bitset.New(ds.numRows)
		for i := uint(0); i < ds.numRows; i++ {
			b.Set(i, reference[i][t])
		}
		ds.referenceTargets[t] = b
	}
}

// NumRows returns N.
func (ds *Dataset) NumRows() uint { return ds.numRows }

// NumFeatures returns F.
func (ds *Dataset) NumFeatures() uint { return ds.numFeatures }

// NumTargets returns T.
func (ds *Dataset) NumTargets() uint { return ds.numTargets }

// HasReference reports whether reference-model bitmasks are present.
func (ds *Dataset) HasReference() bool { return ds.referenceTargets != nil }

// ColFeature returns the column-view bitmask for feature index i.
func (ds *Dataset) ColFeature(i uint) *bitset.Bitset { return ds.colFeatures[i] }

// ColTarget returns the column-view bitmask for target index t.
func (ds *Dataset) ColTarget(t uint) *bitset.Bitset { return ds.colTargets[t] }

// MatchCost returns C[t,t].
func (ds *Dataset) MatchCost(t uint) float64 { return ds.matchCosts[t] }

// MismatchCost returns min_{i != t} C[i,t].
func (ds *Dataset) MismatchCost(t uint) float64 { return ds.mismatchCosts[t] }

// DiffCost returns max_i C[i,t] - min_i C[i,t].
func (ds *Dataset) DiffCost(t uint) float64 { return ds.diffCosts[t] }

// MajorityBitmask returns the cost-minimizing-label bitmask over rows.
func (ds *Dataset) MajorityBitmask() *bitset.Bitset { return ds.majority }

// FeatureMap returns the original-feature -> binarized-feature-set map.
func (ds *Dataset) FeatureMap() []*roaring.Bitmap { return ds.featureMap }

// OriginalFeature maps a binarized feature index back to its original
// column index by scanning the feature map.
func (ds *Dataset) OriginalFeature(binarized uint) (uint, bool) {
	for i, set := range ds.featureMap {
		if set != nil && set.Contains(uint32(binarized)) {
			return uint(i), true
		}
	}
	return 0, false
}

// SummaryStatistics computes the six-tuple used by Task's constructor:
// Akaike-style information, the maximum achievable per-row cost reduction
// (potential), the majority-label loss (max loss), the equivalent-point
// guaranteed-min loss, the (possibly reference-model-informed) min loss,
// and the argmin label (optimal feature).
//
// work is scratch of size NumRows, reused across calls to avoid allocation
// on the hot bound-tightening path.
func (ds *Dataset) SummaryStatistics(capture *bitset.Bitset, work *bitset.Bitset) SummaryStatistics {
	support := float64(capture.Popcount()) / float64(ds.numRows)

	distribution := make([]float64, ds.numTargets)
	for t := uint(0); t < ds.numTargets; t++ {
		bitset.And(capture, ds.colTargets[t], work)
		distribution[t] = float64(work.Popcount())
	}

	maxLoss := math.MaxFloat64
	var optimalFeature uint
	for i := uint(0); i < ds.numTargets; i++ {
		cost := 0.0
		for j := uint(0); j < ds.numTargets; j++ {
			cost += ds.costMatrix[i][j] * distribution[j]
		}
		if cost < maxLoss {
			maxLoss = cost
			optimalFeature = i
		}
	}

	guaranteedMinLoss := 0.0
	potential := 0.0
	information := 0.0
	for t := uint(0); t < ds.numTargets; t++ {
		potential += ds.diffCosts[t] * distribution[t]

		andMajority(capture, ds.majority, ds.colTargets[t], work)
		guaranteedMinLoss += ds.matchCosts[t] * float64(work.Popcount())

		andNotMajority(capture, ds.majority, ds.colTargets[t], work)
		guaranteedMinLoss += ds.mismatchCosts[t] * float64(work.Popcount())

		if distribution[t] > 0 {
			information += support * distribution[t] * (math.Log(distribution[t]) - math.Log(support))
		}
	}
	guaranteedMinLoss = math.Min(guaranteedMinLoss, maxLoss)

	minLoss := guaranteedMinLoss
	if ds.referenceTargets != nil {
		minLoss = 0.0
		for t := uint(0); t < ds.numTargets; t++ {
			bitset.And(capture, ds.colTargets[t], work)
			work.AndInPlace(ds.referenceTargets[t])
			minLoss += ds.matchCosts[t] * float64(work.Popcount())

			bitset.And(capture, ds.colTargets[t], work)
			notRef := ds.referenceTargets[t].Clone()
			notRef.NotInPlace()
			work.AndInPlace(notRef)
			minLoss += ds.mismatchCosts[t] * float64(work.Popcount())
		}
	}

	return SummaryStatistics{
		Information:       information,
		Potential:         potential,
		MaxLoss:           maxLoss,
		MinLoss:           minLoss,
		GuaranteedMinLoss: guaranteedMinLoss,
		OptimalFeature:    optimalFeature,
	}
}

// andMajority sets dst = capture AND majority AND target.
func andMajority(capture, majority, target, dst *bitset.Bitset) {
	bitset.And(capture, majority, dst)
	dst.AndInPlace(target)
}

// andNotMajority sets dst = capture AND NOT(majority) AND target.
func andNotMajority(capture, majority, target, dst *bitset.Bitset) {
	notMajority := majority.Clone()
	notMajority.NotInPlace()
	bitset.And(capture, notMajority, dst)
	dst.AndInPlace(target)
}

// SubsetInplace restricts capture to the side of feature split `feature`:
// AND with the column feature bitmask if positive, else AND with its
// complement.
func (ds *Dataset) SubsetInplace(capture *bitset.Bitset, feature uint, positive bool) {
	col := ds.colFeatures[feature]
	if positive {
		capture.AndInPlace(col)
		return
	}
	notCol := col.Clone()
	notCol.NotInPlace()
	capture.AndInPlace(notCol)
}

// Distance computes the similar-support bound-transfer distance between
// features i and j restricted to capture: the minimum, across the two ways
// of aligning their polarity, of the diff-cost-weighted count of rows where
// the features disagree (or agree) and the target matters.
func (ds *Dataset) Distance(capture *bitset.Bitset, i, j uint, work *bitset.Bitset) float64 {
	var positive, negative float64
	for t := uint(0); t < ds.numTargets; t++ {
		bitset.Xor(ds.colFeatures[i], ds.colFeatures[j], work)
		work.AndInPlace(capture)
		work.AndInPlace(ds.colTargets[t])
		positive += ds.diffCosts[t] * float64(work.Popcount())

		bitset.Xnor(ds.colFeatures[i], ds.colFeatures[j], work)
		work.AndInPlace(capture)
		work.AndInPlace(ds.colTargets[t])
		negative += ds.diffCosts[t] * float64(work.Popcount())
	}
	return math.Min(positive, negative)
}
