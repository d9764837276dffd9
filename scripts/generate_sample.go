// Generates sample data for manual testing: a JSON document export for
// `inkpad import --file`, and churn scores/contributions CSVs for
// `inkpad churn`. Run with: go run scripts/generate_sample.go > docs.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"time"
)

type Document struct {
	ID        string    `json:"id,omitempty"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func main() {
	churnDir := flag.String("churn", "", "also write scores.csv and contribs.csv into this directory")
	total := flag.Int("n", 200, "number of sample documents")
	flag.Parse()

	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))

	tags := make([]string, 12)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag%02d", i+1)
	}

	out := make([]Document, 0, *total)
	base := time.Now().UTC()

	for i := 0; i < *total; i++ {
		k := 1 + mr.Intn(3)
		chosen := sampleTags(mr, tags, k)

		// Stagger timestamps backwards to look natural
		created := base.Add(-time.Duration(30*i+mr.Intn(60)) * time.Minute)
		updated := created.Add(time.Duration(mr.Intn(180)) * time.Minute)
		if mr.Float64() < 0.7 {
			updated = created
		}

		out = append(out, Document{
			Version:   1,
			Title:     fmt.Sprintf("Sample Doc %03d", i+1),
			Body:      fmt.Sprintf("# Sample Doc %03d\n\nBody for sample document %03d.\n\n- tags: %v\n", i+1, i+1, chosen),
			Tags:      chosen,
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}

	if *churnDir != "" {
		if err := writeChurnSamples(mr, *churnDir); err != nil {
			panic(err)
		}
	}
}

func writeChurnSamples(mr *mrand.Rand, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	contracts := []string{"month-to-month", "one-year", "two-year"}

	scores := "tenure,monthly_charges,contract,churn_probability\n"
	contribs := "tenure,monthly_charges,contract\n"
	for i := 0; i < 300; i++ {
		tenure := mr.Intn(72)
		charges := 20 + mr.Float64()*100
		contract := contracts[mr.Intn(len(contracts))]

		// Short tenure and month-to-month contracts skew churn upward.
		p := 0.1 + 0.5*(1-float64(tenure)/72)
		if contract == "month-to-month" {
			p += 0.2
		}
		p += mr.Float64()*0.1 - 0.05
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}

		scores += fmt.Sprintf("%d,%.2f,%s,%.4f\n", tenure, charges, contract, p)
		contribs += fmt.Sprintf("%.4f,%.4f,%.4f\n",
			0.5-float64(tenure)/72, mr.Float64()*0.1-0.05, map[string]float64{
				"month-to-month": 0.2, "one-year": -0.05, "two-year": -0.2,
			}[contract])
	}

	if err := os.WriteFile(dir+"/scores.csv", []byte(scores), 0o644); err != nil {
		return err
	}
	return os.WriteFile(dir+"/contribs.csv", []byte(contribs), 0o644)
}

func sampleTags(r *mrand.Rand, pool []string, k int) []string {
	if k >= len(pool) {
		k = len(pool)
	}
	idx := r.Perm(len(pool))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}
