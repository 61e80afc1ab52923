package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeMailer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMailer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func planResult() calculator.Result {
	return calculator.Calculate(calculator.Input{
		MonthlyIncome:     4000,
		ExtraPayment:      150,
		ConsolidationRate: 9,
		Debts: []calculator.Debt{
			{Name: "Visa <gold>", Balance: 4000, InterestRate: 24.99, MinimumPayment: 120, Type: calculator.DebtTypeCreditCard},
			{Name: "Loan", Balance: 6000, InterestRate: 11, MinimumPayment: 180, Type: calculator.DebtTypePersonalLoan},
		},
	}, calculator.DefaultOptions())
}

func TestRenderPlanReport(t *testing.T) {
	body, err := RenderPlanReport("Main", planResult(), time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, body, "Debt payoff plan: Main")
	assert.Contains(t, body, "Total debt: 10000.00")
	assert.Contains(t, body, "Visa &lt;gold&gt;")
	assert.Contains(t, body, "Consolidating at 9.0%")
	assert.Contains(t, body, "Generated 01.05.2024 10:30")
}

func TestEmailService_SendPlanReport(t *testing.T) {
	mail := &fakeMailer{}
	svc := &EmailService{dialer: mail, from: "planner@example.com"}

	require.NoError(t, svc.SendPlanReport("alex@example.com", "Main", planResult()))
	require.Len(t, mail.sent, 1)

	msg := mail.sent[0]
	assert.Equal(t, []string{"alex@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your debt payoff plan: Main"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Debt payoff plan: Main")
}

func TestEmailService_SendFailure(t *testing.T) {
	svc := &EmailService{dialer: &fakeMailer{err: errors.New("smtp down")}, from: "planner@example.com"}

	err := svc.SendEmail("alex@example.com", "subject", "<p>body</p>")
	assert.ErrorContains(t, err, "smtp down")
}
