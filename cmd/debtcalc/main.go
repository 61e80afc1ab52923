// Command debtcalc runs the debt payoff calculator against a YAML or JSON file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// planFile is the on-disk input. JSON files parse too since YAML is a superset.
type planFile struct {
	MonthlyIncome     any                  `yaml:"monthlyIncome"`
	ExtraPayment      any                  `yaml:"extraPayment"`
	MonthlyExpenses   any                  `yaml:"monthlyExpenses"`
	CreditScore       int                  `yaml:"creditScore"`
	ConsolidationRate any                  `yaml:"consolidationRate"`
	PaymentStrategy   string               `yaml:"paymentStrategy"`
	Debts             []calculator.RawDebt `yaml:"debts"`
}

type flags struct {
	file     string
	strategy string
	extra    float64
	income   float64
	json     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "debtcalc",
		Short:        "Plan a debt payoff from a file of debts",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&f.file, "file", "f", "", "YAML or JSON file with income and debts")
	root.PersistentFlags().StringVar(&f.strategy, "strategy", "", "avalanche or snowball, overrides the file")
	root.PersistentFlags().Float64Var(&f.extra, "extra", -1, "extra monthly payment, overrides the file")
	root.PersistentFlags().Float64Var(&f.income, "income", -1, "monthly income, overrides the file")
	root.PersistentFlags().BoolVar(&f.json, "json", false, "print JSON instead of text")
	_ = root.MarkPersistentFlagRequired("file")

	root.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Print the payoff plan for the chosen strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := loadInput(f)
			if err != nil {
				return err
			}
			result := calculator.Calculate(in, calculator.DefaultOptions())
			if f.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printPlan(cmd.OutOrStdout(), result)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "compare",
		Short: "Compare the avalanche and snowball strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := loadInput(f)
			if err != nil {
				return err
			}
			cmp := calculator.CompareStrategies(in, calculator.DefaultOptions())
			if f.json {
				return writeJSON(cmd.OutOrStdout(), cmp)
			}
			printComparison(cmd.OutOrStdout(), cmp)
			return nil
		},
	})

	return root
}

func loadInput(f *flags) (calculator.Input, error) {
	data, err := os.ReadFile(f.file)
	if err != nil {
		return calculator.Input{}, fmt.Errorf("read %s: %w", f.file, err)
	}
	return parseInput(data, f)
}

func parseInput(data []byte, f *flags) (calculator.Input, error) {
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return calculator.Input{}, fmt.Errorf("parse input: %w", err)
	}

	debts, err := calculator.NormalizeDebts(pf.Debts)
	if err != nil {
		return calculator.Input{}, err
	}

	in := calculator.DefaultInput()
	in.Debts = debts
	in.MonthlyIncome = number(pf.MonthlyIncome)
	in.ExtraPayment = number(pf.ExtraPayment)
	in.MonthlyExpenses = number(pf.MonthlyExpenses)
	if pf.CreditScore > 0 {
		in.CreditScore = pf.CreditScore
	}
	if rate := number(pf.ConsolidationRate); rate > 0 {
		in.ConsolidationRate = rate
	}

	strategy := pf.PaymentStrategy
	if f.strategy != "" {
		strategy = f.strategy
	}
	if strategy != "" {
		s, err := calculator.ParseStrategy(strategy)
		if err != nil {
			return calculator.Input{}, err
		}
		in.PaymentStrategy = s
	}
	if f.extra >= 0 {
		in.ExtraPayment = f.extra
	}
	if f.income >= 0 {
		in.MonthlyIncome = f.income
	}
	return in, nil
}

// number coerces a YAML scalar. Non-numeric and negative values become 0.
func number(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPlan(w io.Writer, r calculator.Result) {
	fmt.Fprintf(w, "Total debt:        $%.2f\n", r.Summary.TotalDebt)
	fmt.Fprintf(w, "Minimum payments:  $%.2f/month\n", r.Summary.TotalMinimumPayment)
	fmt.Fprintf(w, "Average rate:      %.2f%%\n", r.Summary.WeightedAverageRate)
	fmt.Fprintf(w, "Debt free in:      %s\n", months(r.Summary.MonthsToPayoff, r.Summary.Capped))
	fmt.Fprintf(w, "Total interest:    $%.2f\n", r.Summary.TotalInterest)
	fmt.Fprintf(w, "\nStrategy: %s\n", r.PayoffStrategy.Strategy)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDEBT\tFIRST MONTH\tPAID OFF\tINTEREST")
	for _, d := range r.DebtDetails {
		fmt.Fprintf(tw, "%d\t%s\t$%.2f\t%s\t$%.2f\n",
			d.Priority, d.Name, r.PayoffStrategy.MonthlyAllocation[d.Name], payoffMonth(d.PayoffMonth), d.TotalInterest)
	}
	tw.Flush()

	if r.Consolidation.IsRecommended {
		fmt.Fprintf(w, "\nConsolidating at %.2f%% would save $%.2f over %d months\n",
			r.Consolidation.ProposedRate, r.Consolidation.PotentialSavings, r.Consolidation.HorizonMonths)
	}
	if len(r.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range r.Insights {
			fmt.Fprintf(w, "  [%s] %s\n", in.Type, in.Message)
		}
	}
}

func printComparison(w io.Writer, c calculator.Comparison) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tMONTHS\tINTEREST\tORDER")
	for _, o := range []calculator.StrategyOutcome{c.Avalanche, c.Snowball} {
		fmt.Fprintf(tw, "%s\t%s\t$%.2f\t%s\n", o.Strategy, months(o.MonthsToPayoff, o.Capped), o.TotalInterest, strings.Join(o.Order, " > "))
	}
	tw.Flush()

	fmt.Fprintf(w, "\nAvalanche saves $%.2f in interest and %d months\n", c.InterestSaved, c.MonthsSaved)
	fmt.Fprintf(w, "Recommended: %s\n", c.Recommended)
}

func months(n int, capped bool) string {
	if capped {
		return fmt.Sprintf("%d+ months", n)
	}
	return fmt.Sprintf("%d months", n)
}

func payoffMonth(m int) string {
	if m == 0 {
		return "-"
	}
	return fmt.Sprintf("month %d", m)
}
