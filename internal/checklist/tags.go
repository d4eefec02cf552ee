// Package checklist implements the guided financial questionnaire: its tag taxonomy,
// the static question catalogue, the step-by-step session state machine and the
// renderer that compiles answers into a diagnostic prompt.
package checklist

// Tag is the semantic label carried by every answer option.
type Tag string

const (
	// Cash flow
	TagSurplus  Tag = "superavit"
	TagBalanced Tag = "equilibrio"
	TagDeficit  Tag = "deficit"

	// Budgeting
	TagBudget   Tag = "presupuesto"
	TagNoBudget Tag = "sin_presupuesto"

	// Debt
	TagNoDebt      Tag = "sin_deuda"
	TagGoodDebt    Tag = "deuda_buena"
	TagBadDebt     Tag = "deuda_mala"
	TagKnowsRates  Tag = "conoce_tasas"
	TagUnsureRates Tag = "tasa_desconocida"

	// Savings
	TagNoSavings      Tag = "sin_ahorro"
	TagPartialSavings Tag = "ahorro_parcial"
	TagEmergencyFund  Tag = "fondo_emergencia"
	TagPesoSavings    Tag = "ahorro_pesos"
	TagHedgedSavings  Tag = "ahorro_protegido"

	// Investing and goals
	TagInvestor      Tag = "inversor"
	TagWantsToInvest Tag = "inversion_pendiente"
	TagGoalDebtFree  Tag = "meta_deudas"
	TagGoalCushion   Tag = "meta_ahorro"
	TagGoalGrowth    Tag = "meta_crecimiento"
	TagGoalPersonal  Tag = "meta_personal"

	// Concept gaps: the user does not know the underlying idea yet
	TagUnknownBudget        Tag = "no_sabe_presupuesto"
	TagUnknownInterest      Tag = "no_sabe_interes"
	TagUnknownEmergencyFund Tag = "no_sabe_fondo"
	TagUnknownInflation     Tag = "no_sabe_inflacion"
	TagUnknownInvesting     Tag = "no_sabe_inversion"
)

// Class groups tags by how they steer the diagnosis.
type Class int

const (
	ClassNeutral Class = iota
	// ClassCrisis tags (bad debt, deficit) force crisis mode.
	ClassCrisis
	// ClassSafetyNet tags (emergency fund, investor) rule out no-safety-net mode.
	ClassSafetyNet
	// ClassConceptGap tags require explaining a concept before any numbers.
	ClassConceptGap
)

// TagInfo describes one entry of the taxonomy.
type TagInfo struct {
	Tag   Tag
	Class Class
	// Concept names the idea to explain first; only set for ClassConceptGap.
	Concept string
}

// taxonomy is ordered; rendering and AllTags follow this order.
var taxonomy = []TagInfo{
	{Tag: TagSurplus},
	{Tag: TagBalanced},
	{Tag: TagDeficit, Class: ClassCrisis},
	{Tag: TagBudget},
	{Tag: TagNoBudget},
	{Tag: TagNoDebt},
	{Tag: TagGoodDebt},
	{Tag: TagBadDebt, Class: ClassCrisis},
	{Tag: TagKnowsRates},
	{Tag: TagUnsureRates},
	{Tag: TagNoSavings},
	{Tag: TagPartialSavings},
	{Tag: TagEmergencyFund, Class: ClassSafetyNet},
	{Tag: TagPesoSavings},
	{Tag: TagHedgedSavings},
	{Tag: TagInvestor, Class: ClassSafetyNet},
	{Tag: TagWantsToInvest},
	{Tag: TagGoalDebtFree},
	{Tag: TagGoalCushion},
	{Tag: TagGoalGrowth},
	{Tag: TagGoalPersonal},
	{Tag: TagUnknownBudget, Class: ClassConceptGap, Concept: "presupuesto"},
	{Tag: TagUnknownInterest, Class: ClassConceptGap, Concept: "tasa de interés"},
	{Tag: TagUnknownEmergencyFund, Class: ClassConceptGap, Concept: "fondo de emergencia"},
	{Tag: TagUnknownInflation, Class: ClassConceptGap, Concept: "inflación"},
	{Tag: TagUnknownInvesting, Class: ClassConceptGap, Concept: "inversión"},
}

var taxonomyIndex = func() map[Tag]TagInfo {
	m := make(map[Tag]TagInfo, len(taxonomy))
	for _, info := range taxonomy {
		m[info.Tag] = info
	}
	return m
}()

// Info returns the taxonomy entry for t. Unknown tags are reported as neutral with ok=false.
func (t Tag) Info() (TagInfo, bool) {
	info, ok := taxonomyIndex[t]
	if !ok {
		return TagInfo{Tag: t, Class: ClassNeutral}, false
	}
	return info, true
}

// Class returns the steering class of t; unknown tags are neutral.
func (t Tag) Class() Class {
	info, _ := t.Info()
	return info.Class
}

// Known reports whether t belongs to the taxonomy.
func (t Tag) Known() bool {
	_, ok := taxonomyIndex[t]
	return ok
}

// AllTags lists the taxonomy in declaration order.
func AllTags() []Tag {
	out := make([]Tag, len(taxonomy))
	for i, info := range taxonomy {
		out[i] = info.Tag
	}
	return out
}

// TagsOfClass lists the tags of class c in declaration order.
func TagsOfClass(c Class) []Tag {
	var out []Tag
	for _, info := range taxonomy {
		if info.Class == c {
			out = append(out, info.Tag)
		}
	}
	return out
}
