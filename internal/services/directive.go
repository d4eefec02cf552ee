package services

import (
	"finai-backend/internal/config"
	"strings"
)

// ComposeDirective joins the advisor options into the system directive sent with every turn.
func ComposeDirective(a config.AdvisorConfig) string {
	var parts []string
	for _, p := range []string{a.Persona, a.Register, a.Verbosity, a.Disclosure} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
