package cli

import (
	"errors"
	"finai-backend/internal/checklist"
	"fmt"
	"net/mail"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"
)

const backOption = "← Volver a la pregunta anterior"

// Credentials collected by the signup and login prompts.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

func validateEmail(val interface{}) error {
	str, _ := val.(string)
	if _, err := mail.ParseAddress(strings.TrimSpace(str)); err != nil {
		return errors.New("ingresá un email válido")
	}
	return nil
}

// PromptForSignup asks for the fields of a new account.
func PromptForSignup() (Credentials, error) {
	var answers struct {
		Name     string
		Email    string
		Password string
	}
	qs := []*survey.Question{
		{Name: "name", Prompt: &survey.Input{Message: "Nombre:"}},
		{Name: "email", Prompt: &survey.Input{Message: "Email:"}, Validate: validateEmail},
		{
			Name:   "password",
			Prompt: &survey.Password{Message: "Contraseña (mínimo 8 caracteres):"},
			Validate: func(val interface{}) error {
				if str, _ := val.(string); len(str) < 8 {
					return errors.New("la contraseña debe tener al menos 8 caracteres")
				}
				return nil
			},
		},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return Credentials{}, err
	}
	return Credentials{Name: strings.TrimSpace(answers.Name), Email: strings.TrimSpace(answers.Email), Password: answers.Password}, nil
}

// PromptForLogin asks for email and password.
func PromptForLogin() (Credentials, error) {
	var answers struct {
		Email    string
		Password string
	}
	qs := []*survey.Question{
		{Name: "email", Prompt: &survey.Input{Message: "Email:"}, Validate: validateEmail},
		{Name: "password", Prompt: &survey.Password{Message: "Contraseña:"}, Validate: survey.Required},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: strings.TrimSpace(answers.Email), Password: answers.Password}, nil
}

// PromptForOption shows one checklist question. The back option is offered after the first step.
func PromptForOption(step checklist.Step, total int, canGoBack bool) (string, bool, error) {
	labels := make([]string, 0, len(step.Question.Options)+1)
	for _, opt := range step.Question.Options {
		labels = append(labels, opt.Label)
	}
	if canGoBack {
		labels = append(labels, backOption)
	}

	var selected string
	prompt := &survey.Select{
		Message: fmt.Sprintf("[%d/%d] %s\n  %s", step.Index+1, total, step.Category, step.Question.Text),
		Options: labels,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", false, err
	}
	return optionValue(step.Question, selected)
}

// optionValue maps a selected label back to its option value.
func optionValue(q checklist.Question, label string) (string, bool, error) {
	if label == backOption {
		return "", true, nil
	}
	for _, opt := range q.Options {
		if opt.Label == label {
			return opt.Value, false, nil
		}
	}
	return "", false, fmt.Errorf("opción desconocida %q", label)
}

// parseAmount accepts "1500", "1.500,50" or "1500.50".
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("monto inválido %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("el monto no puede ser negativo")
	}
	return d, nil
}

func validateAmount(val interface{}) error {
	str, _ := val.(string)
	_, err := parseAmount(str)
	return err
}

// PromptForSnapshot asks for the monthly numbers of the quick diagnosis.
func PromptForSnapshot() (checklist.Snapshot, error) {
	var answers struct {
		Income   string
		Expenses string
		Debt     string
		Savings  string
		Goal     string
	}
	qs := []*survey.Question{
		{Name: "income", Prompt: &survey.Input{Message: "Ingresos mensuales:"}, Validate: validateAmount},
		{Name: "expenses", Prompt: &survey.Input{Message: "Gastos mensuales:"}, Validate: validateAmount},
		{Name: "debt", Prompt: &survey.Input{Message: "Deuda total:", Default: "0"}, Validate: validateAmount},
		{Name: "savings", Prompt: &survey.Input{Message: "Ahorros disponibles:", Default: "0"}, Validate: validateAmount},
		{Name: "goal", Prompt: &survey.Input{Message: "¿Cuál es tu meta principal?", Help: "Por ejemplo: salir de deudas, viajar, comprar una casa"}},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return checklist.Snapshot{}, err
	}

	var snap checklist.Snapshot
	var err error
	if snap.MonthlyIncome, err = parseAmount(answers.Income); err != nil {
		return snap, err
	}
	if snap.MonthlyExpenses, err = parseAmount(answers.Expenses); err != nil {
		return snap, err
	}
	if snap.TotalDebt, err = parseAmount(answers.Debt); err != nil {
		return snap, err
	}
	if snap.Savings, err = parseAmount(answers.Savings); err != nil {
		return snap, err
	}
	snap.Goal = strings.TrimSpace(answers.Goal)
	return snap, nil
}
