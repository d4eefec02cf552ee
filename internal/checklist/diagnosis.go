package checklist

import (
	"fmt"
	"strings"
)

// Mode is the response protocol the diagnostic prompt asks the model to follow.
type Mode string

const (
	ModeCrisis      Mode = "crisis"
	ModeNoSafetyNet Mode = "sin_red"
	ModeGrowth      Mode = "crecimiento"
)

// Protocol is the name the advisor persona uses for the mode.
func (m Mode) Protocol() string {
	switch m {
	case ModeCrisis:
		return "Gravedad Cero"
	case ModeNoSafetyNet:
		return "Red de Seguridad"
	default:
		return "Despegue"
	}
}

const diagnosticHeader = "[RESULTADOS DEL CHECKLIST FINANCIERO]"

// SelectMode applies the tag rules: any crisis tag wins, then the absence of every
// safety-net tag, otherwise growth.
func SelectMode(tags []Tag) Mode {
	hasSafetyNet := false
	for _, t := range tags {
		switch t.Class() {
		case ClassCrisis:
			return ModeCrisis
		case ClassSafetyNet:
			hasSafetyNet = true
		}
	}
	if !hasSafetyNet {
		return ModeNoSafetyNet
	}
	return ModeGrowth
}

// ConceptGaps returns the distinct concepts the user flagged as unknown, in answer order.
func ConceptGaps(tags []Tag) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, t := range tags {
		info, _ := t.Info()
		if info.Class != ClassConceptGap || seen[info.Concept] {
			continue
		}
		seen[info.Concept] = true
		out = append(out, info.Concept)
	}
	return out
}

// Diagnosis is the compiled result of an answer set.
type Diagnosis struct {
	Mode        Mode
	ConceptGaps []string
	Prompt      string
}

// Diagnose selects the mode and renders the prompt for answers, taken in the given order.
func Diagnose(answers []Answer) Diagnosis {
	tags := make([]Tag, len(answers))
	for i, a := range answers {
		tags[i] = a.Tag
	}
	d := Diagnosis{Mode: SelectMode(tags), ConceptGaps: ConceptGaps(tags)}
	d.Prompt = render(answers, d)
	return d
}

// RenderPrompt is Diagnose(answers).Prompt.
func RenderPrompt(answers []Answer) string {
	return Diagnose(answers).Prompt
}

func quoteTags(tags []Tag) string {
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = fmt.Sprintf("%q", string(t))
	}
	return strings.Join(quoted, " o ")
}

func render(answers []Answer, d Diagnosis) string {
	var b strings.Builder
	b.WriteString(diagnosticHeader)
	b.WriteString("\n\n")

	for _, a := range answers {
		fmt.Fprintf(&b, "Categoría: %s\n", a.Category)
		fmt.Fprintf(&b, "P: %s\n", a.Question)
		fmt.Fprintf(&b, "R: %s (Tag: %s)\n\n", a.Answer, a.Tag)
	}

	b.WriteString("[INSTRUCCIONES PARA EL ASESOR]\n")
	fmt.Fprintf(&b, "- Si aparece algún tag %s: activá el protocolo %q (modo %s). Recortá gastos no esenciales y ordená las deudas con el método bola de nieve.\n",
		quoteTags(TagsOfClass(ClassCrisis)), ModeCrisis.Protocol(), ModeCrisis)
	fmt.Fprintf(&b, "- Si no hay crisis y no aparece ningún tag %s: activá el protocolo %q (modo %s). Priorizá construir un fondo de emergencia de tres a seis meses de gastos.\n",
		quoteTags(TagsOfClass(ClassSafetyNet)), ModeNoSafetyNet.Protocol(), ModeNoSafetyNet)
	fmt.Fprintf(&b, "- En cualquier otro caso: activá el protocolo %q (modo %s). Hablá de optimización, diversificación e inversión a largo plazo.\n",
		ModeGrowth.Protocol(), ModeGrowth)
	fmt.Fprintf(&b, "- Si aparece algún tag %s: frená los consejos numéricos y explicá primero ese concepto con palabras simples y un ejemplo cotidiano.\n",
		quoteTags(TagsOfClass(ClassConceptGap)))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Modo detectado: %s (%q)\n", d.Mode, d.Mode.Protocol())
	if len(d.ConceptGaps) > 0 {
		fmt.Fprintf(&b, "Conceptos a explicar primero: %s\n", strings.Join(d.ConceptGaps, ", "))
	} else {
		b.WriteString("Conceptos a explicar primero: ninguno\n")
	}
	b.WriteString("\n")

	b.WriteString("Formato de respuesta: exactamente tres párrafos.\n")
	b.WriteString("1. Diagnóstico: dónde está parado hoy, en una o dos frases.\n")
	b.WriteString("2. La Lección del Día: el concepto pendiente explicado simple; si no hay ninguno, la idea más útil para su modo.\n")
	b.WriteString("3. Próximo paso: una única acción concreta para esta semana.\n")
	return b.String()
}
