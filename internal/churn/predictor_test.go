package churn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func loadFixture(t *testing.T) *Predictor {
	t.Helper()
	scores := writeCSV(t, "scores.csv", `tenure,contract,churn_probability
1,month-to-month,0.90
24,two-year,0.10
12,month-to-month,0.50
6,one-year,0.30
`)
	contribs := writeCSV(t, "contribs.csv", `tenure,contract
0.4,0.3
-0.5,-0.2
0.1,0.2
-0.1,0.05
`)
	p, err := Load(scores, contribs)
	require.NoError(t, err)
	return p
}

func TestChurnRate(t *testing.T) {
	p := loadFixture(t)

	mean, err := p.ChurnRate(nil)
	require.NoError(t, err)
	assert.InDelta(t, 45.0, mean, 0.001)

	row := 0
	single, err := p.ChurnRate(&row)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, single, 0.001)

	bad := 99
	_, err = p.ChurnRate(&bad)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestSHAP_SortedAscending(t *testing.T) {
	p := loadFixture(t)

	row := 1
	shap, err := p.SHAP(&row)
	require.NoError(t, err)
	require.Len(t, shap, 2)
	assert.Equal(t, "tenure", shap[0].Feature)
	assert.InDelta(t, -0.5, shap[0].Value, 0.001)
	assert.Equal(t, "contract", shap[1].Feature)

	mean, err := p.SHAP(nil)
	require.NoError(t, err)
	for i := 1; i < len(mean); i++ {
		assert.LessOrEqual(t, mean[i-1].Value, mean[i].Value)
	}
}

func TestTopExplanations(t *testing.T) {
	p := loadFixture(t)

	row := 0
	pos, err := p.TopPositive(&row)
	require.NoError(t, err)
	assert.Equal(t, "tenure", pos.Feature)
	assert.True(t, pos.Numeric)

	neg, err := p.TopNegative(&row)
	require.NoError(t, err)
	assert.Equal(t, "contract", neg.Feature)
	assert.False(t, neg.Numeric)

	// Categorical levels are grouped with sizes.
	total := 0
	for _, r := range neg.Rows {
		total += r.Size
	}
	assert.Equal(t, p.Rows(), total)
}

func TestExplain_CategoricalGrouping(t *testing.T) {
	p := loadFixture(t)

	e, err := p.Explain("contract")
	require.NoError(t, err)
	require.Len(t, e.Rows, 3)
	assert.Equal(t, "month-to-month", e.Rows[0].Value)
	assert.Equal(t, 2, e.Rows[0].Size)
	assert.InDelta(t, 0.25, e.Rows[0].Contribution, 0.001)

	_, err = p.Explain("nope")
	assert.Error(t, err)
}

func TestBinNumeric_CapsBins(t *testing.T) {
	vals := make([]float64, 100)
	contribs := make([]float64, 100)
	for i := range vals {
		vals[i] = float64(i)
		contribs[i] = 0.01 * float64(i)
	}
	rows := binNumeric(vals, contribs)
	assert.LessOrEqual(t, len(rows), maxNumericBins)

	total := 0
	for _, r := range rows {
		total += r.Size
	}
	assert.Equal(t, 100, total)
}

func TestLoad_Validation(t *testing.T) {
	scores := writeCSV(t, "s.csv", "a,churn_probability\n1,0.5\n")
	contribs := writeCSV(t, "c.csv", "a\n0.1\n0.2\n")

	_, err := Load(scores, contribs)
	assert.ErrorContains(t, err, "row count mismatch")

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"), contribs)
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	p := loadFixture(t)

	md, err := Report(p, nil)
	require.NoError(t, err)
	assert.Contains(t, md, "# Churn risk report")
	assert.Contains(t, md, "## Churn rate")
	assert.Contains(t, md, "45.00%")
	assert.Contains(t, md, "## Feature contributions")
	assert.Contains(t, md, "Top churn driver")
	assert.Contains(t, md, "Top retention driver")
}
