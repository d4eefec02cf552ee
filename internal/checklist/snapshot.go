package checklist

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const snapshotCategory = "Números del Mes"

var (
	emergencyMonths = decimal.NewFromInt(3)
	heavyDebtMonths = decimal.NewFromInt(6)
)

// Snapshot is the quick numeric check-up: a handful of amounts instead of the full catalogue.
type Snapshot struct {
	MonthlyIncome   decimal.Decimal
	MonthlyExpenses decimal.Decimal
	TotalDebt       decimal.Decimal
	Savings         decimal.Decimal
	Goal            string
}

// Validate rejects negative amounts.
func (s Snapshot) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"ingreso mensual", s.MonthlyIncome},
		{"gastos mensuales", s.MonthlyExpenses},
		{"deuda total", s.TotalDebt},
		{"ahorros", s.Savings},
	}
	var errs []error
	for _, f := range fields {
		if f.value.IsNegative() {
			errs = append(errs, fmt.Errorf("%s no puede ser negativo", f.name))
		}
	}
	return errors.Join(errs...)
}

// Surplus is income minus expenses; negative means a monthly deficit.
func (s Snapshot) Surplus() decimal.Decimal {
	return s.MonthlyIncome.Sub(s.MonthlyExpenses)
}

// CoverageMonths is how many months of expenses the savings cover. ok is false when
// there are no expenses to cover.
func (s Snapshot) CoverageMonths() (months decimal.Decimal, ok bool) {
	if s.MonthlyExpenses.IsZero() {
		return decimal.Zero, false
	}
	return s.Savings.Div(s.MonthlyExpenses).Round(1), true
}

func (s Snapshot) cashFlowTag() Tag {
	switch s.Surplus().Sign() {
	case -1:
		return TagDeficit
	case 0:
		return TagBalanced
	}
	return TagSurplus
}

func (s Snapshot) debtTag() Tag {
	if s.TotalDebt.IsZero() {
		return TagNoDebt
	}
	// Debt beyond six months of income is treated as consumer-debt pressure.
	if s.TotalDebt.GreaterThan(s.MonthlyIncome.Mul(heavyDebtMonths)) {
		return TagBadDebt
	}
	return TagGoodDebt
}

func (s Snapshot) savingsTag() Tag {
	months, ok := s.CoverageMonths()
	switch {
	case !ok && s.Savings.IsPositive():
		return TagEmergencyFund
	case !ok || s.Savings.IsZero():
		return TagNoSavings
	case months.GreaterThanOrEqual(emergencyMonths):
		return TagEmergencyFund
	}
	return TagPartialSavings
}

// Answers renders the snapshot as checklist answers so the same diagnostic renderer applies.
func (s Snapshot) Answers() []Answer {
	money := func(d decimal.Decimal) string { return "$ " + d.StringFixed(2) }

	savingsAnswer := money(s.Savings)
	if months, ok := s.CoverageMonths(); ok {
		savingsAnswer = fmt.Sprintf("%s (cubre %s meses de gastos)", savingsAnswer, months.String())
	}

	answers := []Answer{
		{
			QuestionID: "snapshot_flujo",
			Category:   snapshotCategory,
			Question:   "Ingreso y gastos mensuales",
			Answer:     fmt.Sprintf("ingreso %s, gastos %s, diferencia %s", money(s.MonthlyIncome), money(s.MonthlyExpenses), money(s.Surplus())),
			Tag:        s.cashFlowTag(),
		},
		{
			QuestionID: "snapshot_deuda",
			Category:   snapshotCategory,
			Question:   "Deuda total",
			Answer:     money(s.TotalDebt),
			Tag:        s.debtTag(),
		},
		{
			QuestionID: "snapshot_ahorro",
			Category:   snapshotCategory,
			Question:   "Ahorros disponibles",
			Answer:     savingsAnswer,
			Tag:        s.savingsTag(),
		},
	}
	if s.Goal != "" {
		answers = append(answers, Answer{
			QuestionID: "snapshot_meta",
			Category:   snapshotCategory,
			Question:   "Meta principal",
			Answer:     s.Goal,
			Tag:        TagGoalPersonal,
		})
	}
	return answers
}

// Tags is the tag of every snapshot answer.
func (s Snapshot) Tags() []Tag {
	answers := s.Answers()
	tags := make([]Tag, len(answers))
	for i, a := range answers {
		tags[i] = a.Tag
	}
	return tags
}
