package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/forbiddenlink/finance-quest-sub016/config"
	"gopkg.in/gomail.v2"
)

// mailer is satisfied by *gomail.Dialer
type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends payoff plan reports
type EmailService struct {
	dialer mailer
	from   string
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)
	return &EmailService{dialer: dialer, from: cfg.SMTP.From}
}

// SendEmail sends an HTML message
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendPlanReport mails the payoff plan of a scenario
func (s *EmailService) SendPlanReport(to, scenarioName string, result calculator.Result) error {
	body, err := RenderPlanReport(scenarioName, result, time.Now())
	if err != nil {
		return err
	}
	return s.SendEmail(to, "Your debt payoff plan: "+scenarioName, body)
}

var planReportTemplate = template.Must(template.New("plan").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`
<h2>Debt payoff plan: {{.Name}}</h2>
<p>Total debt: {{money .Result.Summary.TotalDebt}}</p>
<p>Weighted average rate: {{pct .Result.Summary.WeightedAverageRate}}</p>
<p>Strategy: {{.Result.PayoffStrategy.Strategy}}</p>
{{if .Result.Summary.Capped}}<p>Not paid off within {{.Result.Summary.MonthsToPayoff}} months at the current payments.</p>
{{else}}<p>Debt free in {{.Result.Summary.MonthsToPayoff}} months, paying {{money .Result.Summary.TotalInterest}} in interest.</p>
{{end}}<ol>
{{range .Result.DebtDetails}}<li>{{.Name}}: {{money .Balance}} at {{pct .InterestRate}}, priority {{.Priority}}{{if gt .PayoffMonth 0}}, paid off in month {{.PayoffMonth}}{{end}}</li>
{{end}}</ol>
{{if .Result.Consolidation.IsRecommended}}<p>Consolidating at {{pct .Result.Consolidation.ProposedRate}} could save {{money .Result.Consolidation.PotentialSavings}}.</p>
{{end}}{{range .Result.Insights}}<p>{{.Message}}</p>
{{end}}<p>Generated {{.Date}}</p>
`))

// RenderPlanReport renders the HTML body of a plan report
func RenderPlanReport(scenarioName string, result calculator.Result, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := planReportTemplate.Execute(&buf, struct {
		Name   string
		Result calculator.Result
		Date   string
	}{scenarioName, result, now.Format("02.01.2006 15:04")})
	if err != nil {
		return "", fmt.Errorf("render plan report: %w", err)
	}
	return buf.String(), nil
}
