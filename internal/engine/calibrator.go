package engine

import (
	"context"
	"log"
	"math"
	"time"
)

// minCalibrationEmbeddings is the smallest snapshot accepted for
// calibration. Below this the distance distributions are meaningless.
const minCalibrationEmbeddings = 5

// Calibrator derives acceptance thresholds from the distance distributions
// observed in a store snapshot.
type Calibrator struct {
	// QualityThreshold is carried into the result unchanged; calibration
	// tunes distance/confidence only.
	QualityThreshold float64
}

// NewCalibrator creates a calibrator with the default quality threshold.
func NewCalibrator() *Calibrator {
	return &Calibrator{QualityThreshold: DefaultThresholds().Quality}
}

// Calibrate computes thresholds from a fixed snapshot. It returns
// ErrInsufficientData when the snapshot holds fewer than 5 embeddings or
// when either distance distribution comes out empty; callers keep their
// previous thresholds in that case. The context is checked between
// per-identity batches so calibration over a very large store can be
// interrupted.
func (c *Calibrator) Calibrate(ctx context.Context, snap *Snapshot, mode DetectorMode) (*CalibrationResult, error) {
	if snap == nil || snap.Len() < minCalibrationEmbeddings {
		return nil, ErrInsufficientData
	}

	byRoll, order := groupByIdentity(snap)

	intra, err := intraClassDistances(ctx, byRoll, order)
	if err != nil {
		return nil, err
	}
	inter, err := interClassDistances(ctx, byRoll, order)
	if err != nil {
		return nil, err
	}

	if len(intra) == 0 || len(inter) == 0 {
		return nil, ErrInsufficientData
	}

	avgIntra := mean(intra)
	avgInter := mean(inter)
	stdIntra := 0.1
	if len(intra) >= 2 {
		stdIntra = stddev(intra, avgIntra)
	}

	// Boundary sits conservatively above typical same-identity variance,
	// clamped so a degenerate distribution cannot produce an all-accept
	// or all-reject threshold.
	distThreshold := clamp(avgIntra+2*stdIntra, 0.3, 0.6)
	confThreshold := 1.0 - distThreshold - 0.1

	result := &CalibrationResult{
		Timestamp:           time.Now(),
		DistanceThreshold:   distThreshold,
		ConfidenceThreshold: confThreshold,
		QualityThreshold:    c.QualityThreshold,
		DetectorMode:        mode,
		EmbeddingsUsed:      snap.Len(),
		UniqueIdentities:    len(order),
		AvgIntraClass:       avgIntra,
		AvgInterClass:       avgInter,
		StdIntraClass:       stdIntra,
	}

	log.Printf("calibrator: distance=%.3f confidence=%.3f (intra avg=%.3f std=%.3f, inter avg=%.3f, %d embeddings, %d identities)",
		distThreshold, confThreshold, avgIntra, stdIntra, avgInter, snap.Len(), len(order))

	return result, nil
}

// groupByIdentity buckets snapshot embeddings by roll, keeping snapshot
// order both inside each bucket and across rolls.
func groupByIdentity(snap *Snapshot) (map[string][]Embedding, []string) {
	byRoll := make(map[string][]Embedding)
	var order []string
	for _, e := range snap.Entries() {
		if _, ok := byRoll[e.Roll]; !ok {
			order = append(order, e.Roll)
		}
		byRoll[e.Roll] = append(byRoll[e.Roll], e.Embedding)
	}
	return byRoll, order
}

// intraClassDistances computes all pairwise distances within each identity
// that has at least two embeddings.
func intraClassDistances(ctx context.Context, byRoll map[string][]Embedding, order []string) ([]float64, error) {
	var out []float64
	for _, roll := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embs := byRoll[roll]
		for i := 0; i < len(embs); i++ {
			for j := i + 1; j < len(embs); j++ {
				out = append(out, EuclideanDistance(embs[i], embs[j]))
			}
		}
	}
	return out, nil
}

// interClassDistances samples distances between distinct identities,
// capped at the first two embeddings of each. The cap bounds the cost to
// four comparisons per identity pair but biases the sample toward the
// earliest captures; a known limitation, left as is.
func interClassDistances(ctx context.Context, byRoll map[string][]Embedding, order []string) ([]float64, error) {
	var out []float64
	for i := 0; i < len(order); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < len(order); j++ {
			for _, a := range head(byRoll[order[i]], 2) {
				for _, b := range head(byRoll[order[j]], 2) {
					out = append(out, EuclideanDistance(a, b))
				}
			}
		}
	}
	return out, nil
}

func head(embs []Embedding, n int) []Embedding {
	if len(embs) > n {
		return embs[:n]
	}
	return embs
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev computes the sample standard deviation around a precomputed mean.
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
