package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

const (
	DefaultNumClusters   = 5
	DefaultMaxIterations = 100
)

// Ranker standardizes the rating feature and clusters candidates into
// quality tiers. The tier is a smoothing signal on top of the raw rating
// sort; clustering quality never gates success.
type Ranker struct {
	logger *zap.Logger
}

func NewRanker(logger *zap.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// Rank attaches a cluster label and standardized rating to every row.
// Cluster count and iteration cap are configuration, not data-dependent;
// pass zero to use the defaults.
func (r *Ranker) Rank(table models.Table, numClusters, maxIterations int) (models.RankedTable, error) {
	if len(table.Rows) == 0 {
		return models.RankedTable{}, fmt.Errorf("rank %s table: %w", table.Kind, models.ErrInsufficientData)
	}
	if numClusters <= 0 {
		numClusters = DefaultNumClusters
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if numClusters > len(table.Rows) {
		numClusters = len(table.Rows)
	}

	scores := standardize(ratings(table.Rows))
	labels, centroids := kmeans1D(scores, numClusters, maxIterations)

	ranked := models.RankedTable{Kind: table.Kind, Rows: make([]models.RankedCandidate, len(table.Rows))}
	for i, row := range table.Rows {
		ranked.Rows[i] = models.RankedCandidate{
			Candidate:   row,
			Cluster:     labels[i],
			RatingScore: scores[i],
		}
	}

	ranked.SeparationScore = separationScore(scores, labels, centroids)
	r.logger.Debug("Candidate table ranked",
		zap.String("kind", string(table.Kind)),
		zap.Int("rows", len(table.Rows)),
		zap.Int("clusters", numClusters),
		zap.Float64("separation_score", ranked.SeparationScore),
	)

	return ranked, nil
}

// RankedView returns the rows of a ranked table whose location contains
// the given region as a case-insensitive substring, sorted by rating
// descending with original order breaking ties.
func (r *Ranker) RankedView(table models.RankedTable, location string) []models.RankedCandidate {
	needle := strings.ToLower(strings.TrimSpace(location))
	var view []models.RankedCandidate
	for _, row := range table.Rows {
		if needle == "" || strings.Contains(strings.ToLower(row.Location), needle) {
			view = append(view, row)
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Rating > view[j].Rating
	})
	return view
}

func ratings(rows []models.Candidate) []float64 {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row.Rating
	}
	return values
}

// standardize rescales to zero mean and unit variance. A degenerate
// constant feature maps to all zeros.
func standardize(values []float64) []float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	std := math.Sqrt(variance)

	scores := make([]float64, len(values))
	if std == 0 {
		return scores
	}
	for i, v := range values {
		scores[i] = (v - mean) / std
	}
	return scores
}

// kmeans1D clusters a single feature. Centroids are seeded at the sorted
// quantiles, so identical input always yields identical labels.
func kmeans1D(values []float64, k, maxIterations int) ([]int, []float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	centroids := make([]float64, k)
	for i := 0; i < k; i++ {
		idx := i * (len(sorted) - 1) / maxInt(k-1, 1)
		centroids[i] = sorted[idx]
	}

	labels := make([]int, len(values))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, v := range values {
			best := nearestCentroid(v, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		sums := make([]float64, k)
		counts := make([]int, k)
		for i, v := range values {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = sums[c] / float64(counts[c])
			}
		}

		if !changed {
			break
		}
	}

	return labels, centroids
}

func nearestCentroid(v float64, centroids []float64) int {
	best := 0
	bestDist := math.Abs(v - centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := math.Abs(v - centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// separationScore is the between-cluster share of total variance, in
// [0, 1]. Diagnostics only; a low score is not an error.
func separationScore(values []float64, labels []int, centroids []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	total := 0.0
	between := 0.0
	for i, v := range values {
		total += (v - mean) * (v - mean)
		c := centroids[labels[i]]
		between += (c - mean) * (c - mean)
	}
	if total == 0 {
		return 0
	}
	return between / total
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
