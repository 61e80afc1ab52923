package calculator

import "fmt"

// InsightType classifies an advisory message.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightInfo    InsightType = "info"
)

// Insight is an advisory message. Insights never block a calculation.
type Insight struct {
	Type    InsightType `json:"type"`
	Message string      `json:"message"`
}

// GenerateInsights maps metrics and debts to advisory messages in a fixed order:
// debt-to-income, utilization, high-APR debts, tax-deductible debts.
func GenerateInsights(m Metrics, debts []Debt, opts Options) []Insight {
	insights := []Insight{}

	if m.DebtServiceRatio > opts.DebtServiceThreshold {
		insights = append(insights, Insight{
			Type: InsightWarning,
			Message: fmt.Sprintf("Debt-to-income ratio of %.1f%% is above the recommended %.0f%%",
				m.DebtServiceRatio, opts.DebtServiceThreshold),
		})
	}

	if m.UtilizationRate > opts.UtilizationThreshold {
		insights = append(insights, Insight{
			Type: InsightWarning,
			Message: fmt.Sprintf("High credit utilization (%.1f%%) may be lowering your credit score; aim for under %.0f%%",
				m.UtilizationRate, opts.UtilizationThreshold),
		})
	}

	for _, d := range debts {
		if d.InterestRate > opts.HighAPRThreshold {
			insights = append(insights, Insight{
				Type:    InsightWarning,
				Message: fmt.Sprintf("%s carries a %.2f%% APR; consider refinancing", d.Name, d.InterestRate),
			})
		}
	}

	for _, d := range debts {
		if d.IsDeductible {
			insights = append(insights, Insight{
				Type:    InsightInfo,
				Message: fmt.Sprintf("%s has tax-deductible interest; keep records for your return", d.Name),
			})
		}
	}

	return insights
}
