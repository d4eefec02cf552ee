package cli

import (
	"finai-backend/internal/checklist"
	"finai-backend/internal/models"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// UI styles
var (
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#10B981")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#10B981")).
		Padding(0, 2)

	userStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	assistantStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#10B981"))

	timestampStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	tokenStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#8B5CF6"))

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(72)
)

var statusColors = map[checklist.ProfileStatus]string{
	checklist.StatusPending:     "#6B7280",
	checklist.StatusUnparseable: "#6B7280",
	checklist.StatusDebtDeficit: "#EF4444",
	checklist.StatusNoSavings:   "#F59E0B",
	checklist.StatusStable:      "#10B981",
}

func assistantLabel() string { return assistantStyle.Render("🤖 FinAI:") }

func DisplayHeader(title string) {
	fmt.Println(headerStyle.Render(title))
}

func DisplaySuccess(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func DisplayWarning(msg string) {
	fmt.Println(warningStyle.Render("! " + msg))
}

// DisplayToken prints the access token along with how to reuse it.
func DisplayToken(token string) {
	fmt.Println(tokenStyle.Render(token))
	fmt.Println(timestampStyle.Render("export FINAI_TOKEN=<token> para usarlo en los demás comandos"))
}

func DisplayHistory(msgs []models.HistoryMessage) {
	if len(msgs) == 0 {
		fmt.Println(timestampStyle.Render("Todavía no hay mensajes en esta conversación."))
		return
	}
	for _, m := range msgs {
		label := assistantLabel()
		if m.Role == models.RoleUser {
			label = userStyle.Render("👤 Vos:")
		}
		fmt.Printf("%s %s\n%s\n\n", timestampStyle.Render(m.CreatedAt.Local().Format("02/01 15:04")), label, m.Content)
	}
}

// DisplayDiagnosis summarizes which protocol the advisor was asked to follow.
func DisplayDiagnosis(d checklist.Diagnosis) {
	var b strings.Builder
	fmt.Fprintf(&b, "Protocolo: %s", d.Mode.Protocol())
	if len(d.ConceptGaps) > 0 {
		fmt.Fprintf(&b, "\nConceptos a repasar: %s", strings.Join(d.ConceptGaps, ", "))
	}
	fmt.Println(panelStyle.BorderForeground(lipgloss.Color("#3B82F6")).Render(b.String()))
}

func DisplayProfile(resp *models.ProfileStatusResponse) {
	status := checklist.ProfileStatus(resp.Status)
	color, ok := statusColors[status]
	if !ok {
		color = "#6B7280"
	}
	body := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(status.Label())
	if resp.Profile != nil {
		body += "\n" + timestampStyle.Render("Actualizado: "+resp.Profile.UpdatedAt.Local().Format("02/01/2006 15:04"))
	}
	fmt.Println(panelStyle.BorderForeground(lipgloss.Color(color)).Render(body))
}
