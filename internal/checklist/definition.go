package checklist

import (
	"errors"
	"fmt"
)

// Option is one selectable answer. Value is the short display key ("A", "B", ...).
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Tag   Tag    `json:"tag"`
}

// Question is one prompt with its ordered options.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Section groups questions under a category label.
type Section struct {
	Category  string     `json:"category"`
	Questions []Question `json:"questions"`
}

// Definition is the full ordered catalogue.
type Definition struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Step is a question as addressed by the session: its flattened index and category.
type Step struct {
	Index    int
	Category string
	Question Question
}

// Option looks up an option of the question by display value.
func (q Question) Option(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Flatten returns the questions in section order, then question order within each section.
// The same definition always yields the same step numbering.
func (d Definition) Flatten() []Step {
	var steps []Step
	for _, sec := range d.Sections {
		for _, q := range sec.Questions {
			steps = append(steps, Step{Index: len(steps), Category: sec.Category, Question: q})
		}
	}
	return steps
}

// Validate checks that the definition can drive a session.
func (d Definition) Validate() error {
	seen := make(map[string]bool)
	total := 0
	for _, sec := range d.Sections {
		for _, q := range sec.Questions {
			total++
			if q.ID == "" {
				return fmt.Errorf("question %q in %q has no id", q.Text, sec.Category)
			}
			if seen[q.ID] {
				return fmt.Errorf("duplicate question id %q", q.ID)
			}
			seen[q.ID] = true
			if len(q.Options) == 0 {
				return fmt.Errorf("question %q has no options", q.ID)
			}
			values := make(map[string]bool, len(q.Options))
			for _, opt := range q.Options {
				if opt.Tag == "" {
					return fmt.Errorf("option %q of question %q has no tag", opt.Value, q.ID)
				}
				if values[opt.Value] {
					return fmt.Errorf("duplicate option %q in question %q", opt.Value, q.ID)
				}
				values[opt.Value] = true
			}
		}
	}
	if total == 0 {
		return errors.New("checklist definition has no questions")
	}
	return nil
}

// DefaultDefinition is the catalogue served to clients.
func DefaultDefinition() Definition {
	return Definition{
		Title: "Chequeo de Salud Financiera",
		Sections: []Section{
			{
				Category: "Flujo de Caja",
				Questions: []Question{
					{
						ID:   "flujo_mensual",
						Text: "A fin de mes, ¿cómo te queda la cuenta?",
						Options: []Option{
							{Value: "A", Label: "Me sobra plata y la aparto", Tag: TagSurplus},
							{Value: "B", Label: "Llego justo, sin sobrante", Tag: TagBalanced},
							{Value: "C", Label: "No llego: uso la tarjeta o pido prestado", Tag: TagDeficit},
						},
					},
					{
						ID:   "presupuesto",
						Text: "¿Llevás un registro de tus gastos?",
						Options: []Option{
							{Value: "A", Label: "Sí, armo un presupuesto todos los meses", Tag: TagBudget},
							{Value: "B", Label: "A veces, sin un método fijo", Tag: TagNoBudget},
							{Value: "C", Label: "No sé bien qué es un presupuesto", Tag: TagUnknownBudget},
						},
					},
				},
			},
			{
				Category: "Deudas",
				Questions: []Question{
					{
						ID:   "tipo_deuda",
						Text: "¿Qué tipo de deudas tenés hoy?",
						Options: []Option{
							{Value: "A", Label: "Ninguna", Tag: TagNoDebt},
							{Value: "B", Label: "Hipoteca o crédito para estudiar o trabajar", Tag: TagGoodDebt},
							{Value: "C", Label: "Saldo de tarjeta, préstamos personales o cuotas atrasadas", Tag: TagBadDebt},
						},
					},
					{
						ID:   "tasa_interes",
						Text: "¿Sabés qué tasa de interés pagás por lo que debés?",
						Options: []Option{
							{Value: "A", Label: "Sí, la tengo clara", Tag: TagKnowsRates},
							{Value: "B", Label: "Más o menos, nunca la miré", Tag: TagUnsureRates},
							{Value: "C", Label: "No sé qué es la tasa de interés", Tag: TagUnknownInterest},
						},
					},
				},
			},
			{
				Category: "Ahorro y Emergencias",
				Questions: []Question{
					{
						ID:   "colchon",
						Text: "Si mañana perdés tu ingreso, ¿cuánto tiempo podrías cubrir tus gastos?",
						Options: []Option{
							{Value: "A", Label: "Menos de un mes", Tag: TagNoSavings},
							{Value: "B", Label: "Entre uno y tres meses", Tag: TagPartialSavings},
							{Value: "C", Label: "Más de tres meses", Tag: TagEmergencyFund},
							{Value: "D", Label: "No sé qué es un fondo de emergencia", Tag: TagUnknownEmergencyFund},
						},
					},
					{
						ID:   "moneda_ahorro",
						Text: "¿Dónde guardás lo que ahorrás?",
						Options: []Option{
							{Value: "A", Label: "En pesos, en la cuenta o en efectivo", Tag: TagPesoSavings},
							{Value: "B", Label: "En dólares, plazo fijo o algo que le gane a la inflación", Tag: TagHedgedSavings},
							{Value: "C", Label: "No sé cómo me afecta la inflación", Tag: TagUnknownInflation},
						},
					},
				},
			},
			{
				Category: "Inversión y Metas",
				Questions: []Question{
					{
						ID:   "inversion",
						Text: "¿Invertís parte de tu dinero?",
						Options: []Option{
							{Value: "A", Label: "Sí, regularmente (acciones, FCI, bonos)", Tag: TagInvestor},
							{Value: "B", Label: "Me interesa, pero todavía no empecé", Tag: TagWantsToInvest},
							{Value: "C", Label: "No sé qué significa invertir", Tag: TagUnknownInvesting},
						},
					},
					{
						ID:   "meta",
						Text: "¿Cuál es tu objetivo principal hoy?",
						Options: []Option{
							{Value: "A", Label: "Salir de deudas", Tag: TagGoalDebtFree},
							{Value: "B", Label: "Armar un colchón para imprevistos", Tag: TagGoalCushion},
							{Value: "C", Label: "Hacer crecer mi dinero", Tag: TagGoalGrowth},
						},
					},
				},
			},
		},
	}
}
