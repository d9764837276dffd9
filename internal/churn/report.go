package churn

import (
	"fmt"
	"strings"
)

// Report renders the analytics as a markdown document, fed to the same
// rendering pipeline as any other document (glamour in a terminal, HTML
// on the web).
func Report(p *Predictor, row *int) (string, error) {
	var b strings.Builder

	b.WriteString("# Churn risk report\n\n")
	if row != nil {
		fmt.Fprintf(&b, "Customer row: **%d** of %d\n\n", *row, p.Rows())
	} else {
		fmt.Fprintf(&b, "Dataset: **%d** customers (mean view)\n\n", p.Rows())
	}

	rate, err := p.ChurnRate(row)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "## Churn rate\n\n**%.2f%%**\n\n", rate)

	shap, err := p.SHAP(row)
	if err != nil {
		return "", err
	}
	b.WriteString("## Feature contributions\n\n")
	b.WriteString("| Feature | Contribution |\n|---|---|\n")
	for i := len(shap) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "| %s | %.4f |\n", shap[i].Feature, shap[i].Value)
	}
	b.WriteString("\n")

	pos, err := p.TopPositive(row)
	if err != nil {
		return "", err
	}
	writeExplanation(&b, "Top churn driver", pos)

	neg, err := p.TopNegative(row)
	if err != nil {
		return "", err
	}
	writeExplanation(&b, "Top retention driver", neg)

	return b.String(), nil
}

func writeExplanation(b *strings.Builder, heading string, e Explanation) {
	fmt.Fprintf(b, "## %s: %s\n\n", heading, e.Feature)
	if e.Numeric {
		b.WriteString("| Up to | Mean contribution | Customers |\n|---|---|---|\n")
	} else {
		b.WriteString("| Level | Mean contribution | Customers |\n|---|---|---|\n")
	}
	for _, r := range e.Rows {
		fmt.Fprintf(b, "| %s | %.4f | %d |\n", r.Value, r.Contribution, r.Size)
	}
	b.WriteString("\n")
}
