// Package churn computes churn-risk summaries from precomputed model output:
// a scores CSV (customer features plus a churn probability column) and a
// contributions CSV (per-feature SHAP values, one row per customer).
package churn

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
)

const maxNumericBins = 20

var ErrRowOutOfRange = fmt.Errorf("row index out of range")

// Contribution is one feature's SHAP value.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// ExplanationRow is one bin or level of a feature explanation.
type ExplanationRow struct {
	Value        string  `json:"value"`
	Contribution float64 `json:"contribution"`
	Size         int     `json:"size"`
}

// Explanation describes how a single feature drives the prediction.
type Explanation struct {
	Feature string           `json:"feature"`
	Numeric bool             `json:"numeric"`
	Rows    []ExplanationRow `json:"rows"`
}

// Predictor answers churn-rate and explanation queries over a loaded dataset.
type Predictor struct {
	features      []string
	featureValues map[string][]string
	probabilities []float64

	contribCols []string
	contribs    map[string][]float64
	rows        int
}

// Load reads the scores and contributions CSVs. The probability column of the
// scores file is named "churn_probability"; if absent, the last column is used.
func Load(scoresPath, contribsPath string) (*Predictor, error) {
	scoreCols, scoreRows, err := readCSV(scoresPath)
	if err != nil {
		return nil, fmt.Errorf("scores: %w", err)
	}
	contribCols, contribRows, err := readCSV(contribsPath)
	if err != nil {
		return nil, fmt.Errorf("contributions: %w", err)
	}
	if len(scoreRows) == 0 {
		return nil, fmt.Errorf("scores: no data rows")
	}
	if len(scoreRows) != len(contribRows) {
		return nil, fmt.Errorf("row count mismatch: %d scores vs %d contributions", len(scoreRows), len(contribRows))
	}

	probIdx := -1
	for i, c := range scoreCols {
		if c == "churn_probability" {
			probIdx = i
		}
	}
	if probIdx < 0 {
		probIdx = len(scoreCols) - 1
	}

	p := &Predictor{
		featureValues: make(map[string][]string),
		contribs:      make(map[string][]float64),
		contribCols:   contribCols,
		rows:          len(scoreRows),
	}

	for i, c := range scoreCols {
		if i == probIdx {
			continue
		}
		p.features = append(p.features, c)
		col := make([]string, len(scoreRows))
		for r, row := range scoreRows {
			col[r] = row[i]
		}
		p.featureValues[c] = col
	}

	p.probabilities = make([]float64, len(scoreRows))
	for r, row := range scoreRows {
		v, err := strconv.ParseFloat(row[probIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("scores row %d: bad probability %q", r+1, row[probIdx])
		}
		p.probabilities[r] = v
	}

	for i, c := range contribCols {
		col := make([]float64, len(contribRows))
		for r, row := range contribRows {
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("contributions row %d, column %s: %q", r+1, c, row[i])
			}
			col[r] = v
		}
		p.contribs[c] = col
	}

	return p, nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	all, err := rd.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) < 1 {
		return nil, nil, fmt.Errorf("empty file")
	}
	return all[0], all[1:], nil
}

// Rows returns the number of customers in the dataset.
func (p *Predictor) Rows() int { return p.rows }

// ChurnRate returns the churn probability as a percentage rounded to two
// decimals, for one customer or (row == nil) the dataset mean.
func (p *Predictor) ChurnRate(row *int) (float64, error) {
	if row == nil {
		var sum float64
		for _, v := range p.probabilities {
			sum += v
		}
		return round2(sum / float64(p.rows) * 100), nil
	}
	if *row < 0 || *row >= p.rows {
		return 0, ErrRowOutOfRange
	}
	return round2(p.probabilities[*row] * 100), nil
}

// SHAP returns all feature contributions sorted ascending by value, for one
// customer or (row == nil) the per-feature dataset means.
func (p *Predictor) SHAP(row *int) ([]Contribution, error) {
	if row != nil && (*row < 0 || *row >= p.rows) {
		return nil, ErrRowOutOfRange
	}
	out := make([]Contribution, 0, len(p.contribCols))
	for _, c := range p.contribCols {
		col := p.contribs[c]
		var v float64
		if row == nil {
			var sum float64
			for _, x := range col {
				sum += x
			}
			v = sum / float64(len(col))
		} else {
			v = col[*row]
		}
		out = append(out, Contribution{Feature: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// TopPositive explains the feature with the largest contribution.
func (p *Predictor) TopPositive(row *int) (Explanation, error) {
	shap, err := p.SHAP(row)
	if err != nil {
		return Explanation{}, err
	}
	return p.explain(shap[len(shap)-1].Feature)
}

// TopNegative explains the feature with the smallest contribution.
func (p *Predictor) TopNegative(row *int) (Explanation, error) {
	shap, err := p.SHAP(row)
	if err != nil {
		return Explanation{}, err
	}
	return p.explain(shap[0].Feature)
}

// Explain builds the binned explanation for a named feature.
func (p *Predictor) Explain(feature string) (Explanation, error) {
	return p.explain(feature)
}

func (p *Predictor) explain(feature string) (Explanation, error) {
	vals, ok := p.featureValues[feature]
	if !ok {
		return Explanation{}, fmt.Errorf("unknown feature %q", feature)
	}
	col, ok := p.contribs[feature]
	if !ok {
		return Explanation{}, fmt.Errorf("no contributions for feature %q", feature)
	}

	if nums, isNumeric := parseNumericColumn(vals); isNumeric {
		return Explanation{Feature: feature, Numeric: true, Rows: binNumeric(nums, col)}, nil
	}
	return Explanation{Feature: feature, Numeric: false, Rows: groupCategorical(vals, col)}, nil
}

func parseNumericColumn(vals []string) ([]float64, bool) {
	nums := make([]float64, len(vals))
	for i, s := range vals {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = v
	}
	return nums, true
}

// binNumeric groups rows by the sorted distinct feature values, capped at
// maxNumericBins equal-width ranges, and averages the contributions per bin.
func binNumeric(vals, contribs []float64) []ExplanationRow {
	distinct := make(map[float64]struct{}, len(vals))
	for _, v := range vals {
		distinct[v] = struct{}{}
	}
	edges := make([]float64, 0, len(distinct))
	for v := range distinct {
		edges = append(edges, v)
	}
	sort.Float64s(edges)

	if len(edges) > maxNumericBins {
		lo, hi := edges[0], edges[len(edges)-1]
		width := (hi - lo) / maxNumericBins
		edges = edges[:0]
		for i := 1; i <= maxNumericBins; i++ {
			edges = append(edges, lo+width*float64(i))
		}
	}

	type agg struct {
		sum  float64
		size int
	}
	bins := make([]agg, len(edges))
	for i, v := range vals {
		b := sort.SearchFloat64s(edges, v)
		if b >= len(edges) {
			b = len(edges) - 1
		}
		bins[b].sum += contribs[i]
		bins[b].size++
	}

	rows := make([]ExplanationRow, 0, len(edges))
	for i, e := range edges {
		mean := 0.0
		if bins[i].size > 0 {
			mean = bins[i].sum / float64(bins[i].size)
		}
		rows = append(rows, ExplanationRow{
			Value:        strconv.FormatFloat(e, 'g', -1, 64),
			Contribution: mean,
			Size:         bins[i].size,
		})
	}
	return rows
}

func groupCategorical(vals []string, contribs []float64) []ExplanationRow {
	type agg struct {
		sum  float64
		size int
	}
	groups := make(map[string]*agg)
	order := make([]string, 0)
	for i, v := range vals {
		g, ok := groups[v]
		if !ok {
			g = &agg{}
			groups[v] = g
			order = append(order, v)
		}
		g.sum += contribs[i]
		g.size++
	}
	sort.Strings(order)

	rows := make([]ExplanationRow, 0, len(order))
	for _, level := range order {
		g := groups[level]
		rows = append(rows, ExplanationRow{
			Value:        level,
			Contribution: g.sum / float64(g.size),
			Size:         g.size,
		})
	}
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
