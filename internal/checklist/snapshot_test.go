package checklist

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func snap(income, expenses, debt, savings int64) Snapshot {
	return Snapshot{
		MonthlyIncome:   decimal.NewFromInt(income),
		MonthlyExpenses: decimal.NewFromInt(expenses),
		TotalDebt:       decimal.NewFromInt(debt),
		Savings:         decimal.NewFromInt(savings),
	}
}

func TestSnapshotTags(t *testing.T) {
	cases := []struct {
		name string
		s    Snapshot
		want []Tag
		mode Mode
	}{
		{"deficit", snap(1000, 1200, 0, 0), []Tag{TagDeficit, TagNoDebt, TagNoSavings}, ModeCrisis},
		{"heavy debt", snap(1000, 800, 7000, 500), []Tag{TagSurplus, TagBadDebt, TagPartialSavings}, ModeCrisis},
		{"no cushion", snap(1000, 1000, 2000, 1000), []Tag{TagBalanced, TagGoodDebt, TagPartialSavings}, ModeNoSafetyNet},
		{"cushion", snap(2000, 1000, 0, 3000), []Tag{TagSurplus, TagNoDebt, TagEmergencyFund}, ModeGrowth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.s.Tags()
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
			if m := Diagnose(tc.s.Answers()).Mode; m != tc.mode {
				t.Fatalf("expected mode %s, got %s", tc.mode, m)
			}
		})
	}
}

func TestSnapshotAnswersIncludeGoalAndCoverage(t *testing.T) {
	s := snap(2000, 1000, 0, 2500)
	s.Goal = "Comprar una moto"
	answers := s.Answers()
	if len(answers) != 4 || answers[3].Answer != "Comprar una moto" {
		t.Fatalf("expected goal answer last, got %+v", answers)
	}
	if !strings.Contains(answers[2].Answer, "cubre 2.5 meses") {
		t.Fatalf("expected coverage months in savings answer, got %q", answers[2].Answer)
	}
}

func TestSnapshotValidate(t *testing.T) {
	s := snap(1000, -1, 0, 0)
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "gastos mensuales") {
		t.Fatalf("expected negative expenses error, got %v", err)
	}
	if err := snap(0, 0, 0, 0).Validate(); err != nil {
		t.Fatalf("expected zeros to validate, got %v", err)
	}
}
