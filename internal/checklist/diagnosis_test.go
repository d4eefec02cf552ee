package checklist

import (
	"strings"
	"testing"
)

func TestSelectModeCrisisWinsOverEverything(t *testing.T) {
	for _, crisis := range TagsOfClass(ClassCrisis) {
		for _, other := range AllTags() {
			for _, tags := range [][]Tag{{crisis, other}, {other, crisis}, {other, TagInvestor, crisis, TagEmergencyFund}} {
				if got := SelectMode(tags); got != ModeCrisis {
					t.Fatalf("expected crisis for %v, got %s", tags, got)
				}
			}
		}
	}
}

func TestSelectModeNoSafetyNet(t *testing.T) {
	var neutral []Tag
	for _, tag := range AllTags() {
		if c := tag.Class(); c == ClassNeutral || c == ClassConceptGap {
			neutral = append(neutral, tag)
		}
	}
	if got := SelectMode(neutral); got != ModeNoSafetyNet {
		t.Fatalf("expected no-safety-net for only neutral tags, got %s", got)
	}
	if got := SelectMode(nil); got != ModeNoSafetyNet {
		t.Fatalf("expected no-safety-net for empty answers, got %s", got)
	}
	if got := SelectMode([]Tag{"tag_inventado"}); got != ModeNoSafetyNet {
		t.Fatalf("expected unknown tags to be neutral, got %s", got)
	}
}

func TestSelectModeGrowth(t *testing.T) {
	for _, safety := range TagsOfClass(ClassSafetyNet) {
		tags := []Tag{TagSurplus, TagBudget, TagNoDebt, TagKnowsRates, safety, TagHedgedSavings, TagGoalGrowth}
		if got := SelectMode(tags); got != ModeGrowth {
			t.Fatalf("expected growth with %s, got %s", safety, got)
		}
	}
}

func TestConceptGapsDeduplicated(t *testing.T) {
	gaps := ConceptGaps([]Tag{TagUnknownInflation, TagSurplus, TagUnknownBudget, TagUnknownInflation})
	if len(gaps) != 2 || gaps[0] != "inflación" || gaps[1] != "presupuesto" {
		t.Fatalf("unexpected gaps %v", gaps)
	}
}

func TestRenderPromptLayout(t *testing.T) {
	answers := []Answer{
		{Category: "Deudas", Question: "¿Qué deudas tenés?", Answer: "Tarjeta", Tag: TagBadDebt},
		{Category: "Ahorro", Question: "¿Cuánto ahorrás?", Answer: "No sé", Tag: TagUnknownEmergencyFund},
	}
	prompt := RenderPrompt(answers)

	if !strings.HasPrefix(prompt, "[RESULTADOS DEL CHECKLIST FINANCIERO]\n\n") {
		t.Fatalf("expected header first, got %q", prompt[:40])
	}
	wantBlock := "Categoría: Deudas\nP: ¿Qué deudas tenés?\nR: Tarjeta (Tag: deuda_mala)\n\nCategoría: Ahorro\n"
	if !strings.Contains(prompt, wantBlock) {
		t.Fatalf("expected answers in order, got:\n%s", prompt)
	}
	for _, fragment := range []string{
		"Modo detectado: crisis (\"Gravedad Cero\")",
		"Conceptos a explicar primero: fondo de emergencia",
		"\"deuda_mala\"",
		"exactamente tres párrafos",
		"3. Próximo paso",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("expected prompt to contain %q", fragment)
		}
	}
	if RenderPrompt(answers) != prompt {
		t.Fatal("expected rendering to be deterministic")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want ProfileStatus
	}{
		{"no profile", "", StatusPending},
		{"invalid json", "{answers:", StatusUnparseable},
		{"missing answers", `{"completedAt":"2025-01-01T00:00:00Z"}`, StatusUnparseable},
		{"answers not an array", `{"answers":"x"}`, StatusUnparseable},
		{"deficit", `{"answers":[{"tag":"inversor"},{"tag":"deficit"}]}`, StatusDebtDeficit},
		{"no savings", `{"answers":[{"tag":"superavit"}]}`, StatusNoSavings},
		{"stable", `{"answers":[{"tag":"fondo_emergencia"}]}`, StatusStable},
		{"legacy keys", `{"answers":[{"pregunta":"p","respuesta":"r","tag":"deuda_mala","categoria":"c"}]}`, StatusDebtDeficit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.raw); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
	if StatusUnparseable.Label() != "Error Datos" {
		t.Fatalf("unexpected label %q", StatusUnparseable.Label())
	}
}
