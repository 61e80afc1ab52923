package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
monthlyIncome: 5000
extraPayment: "200"
creditScore: 680
debts:
  - name: Card
    balance: 5000
    interestRate: 22.9
    minimumPayment: 150
    type: credit_card
  - name: Car
    balance: "2000"
    interestRate: 5
    minimumPayment: 100
    type: auto_loan
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseInput(t *testing.T) {
	in, err := parseInput([]byte(sampleYAML), &flags{extra: -1, income: -1})
	require.NoError(t, err)

	assert.Equal(t, 5000.0, in.MonthlyIncome)
	assert.Equal(t, 200.0, in.ExtraPayment)
	assert.Equal(t, 680, in.CreditScore)
	assert.Equal(t, calculator.Avalanche, in.PaymentStrategy)
	require.Len(t, in.Debts, 2)
	assert.Equal(t, calculator.DebtTypeCreditCard, in.Debts[0].Type)
}

func TestParseInput_FlagsOverrideFile(t *testing.T) {
	in, err := parseInput([]byte(sampleYAML), &flags{strategy: "snowball", extra: 0, income: 4000})
	require.NoError(t, err)

	assert.Equal(t, calculator.Snowball, in.PaymentStrategy)
	assert.Equal(t, 0.0, in.ExtraPayment)
	assert.Equal(t, 4000.0, in.MonthlyIncome)
}

func TestParseInput_Errors(t *testing.T) {
	_, err := parseInput([]byte(sampleYAML), &flags{strategy: "fastest", extra: -1, income: -1})
	assert.ErrorIs(t, err, calculator.ErrUnknownStrategy)

	_, err = parseInput([]byte("debts:\n  - name: X\n    type: yacht\n"), &flags{extra: -1, income: -1})
	assert.ErrorIs(t, err, calculator.ErrUnknownDebtType)

	_, err = parseInput([]byte("debts: [unclosed"), &flags{extra: -1, income: -1})
	assert.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	path := writeFile(t, "debts.yaml", sampleYAML)

	out, err := execute(t, "plan", "--file", path, "--strategy", "snowball")
	require.NoError(t, err)

	assert.Contains(t, out, "Total debt:        $7000.00")
	assert.Contains(t, out, "Strategy: snowball")
	assert.Contains(t, out, "Card")
	assert.Contains(t, out, "Car")
}

func TestPlanCommand_JSON(t *testing.T) {
	path := writeFile(t, "debts.json", `{"monthlyIncome": 5000, "debts": [{"name": "Card", "balance": 1200, "interestRate": 18, "minimumPayment": 60}]}`)

	out, err := execute(t, "plan", "-f", path, "--json")
	require.NoError(t, err)

	var result calculator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1200.0, result.Summary.TotalDebt)
	assert.Equal(t, []string{"Card"}, result.PayoffStrategy.Order)
}

func TestCompareCommand(t *testing.T) {
	path := writeFile(t, "debts.yaml", sampleYAML)

	out, err := execute(t, "compare", "--file", path, "--json")
	require.NoError(t, err)

	var cmp calculator.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &cmp))
	assert.Equal(t, []string{"Card", "Car"}, cmp.Avalanche.Order)
	assert.Equal(t, []string{"Car", "Card"}, cmp.Snowball.Order)
	assert.GreaterOrEqual(t, cmp.InterestSaved, 0.0)

	out, err = execute(t, "compare", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Recommended:")
}

func TestMissingFile(t *testing.T) {
	_, err := execute(t, "plan")
	assert.Error(t, err)

	_, err = execute(t, "plan", "--file", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
