// Package cli implements finaictl, the terminal companion of the FinAI server.
package cli

import (
	"finai-backend/internal/client"
	"os"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

type globalOptions struct {
	server string
	token  string
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.server, o.token)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "finaictl",
		Short: "finaictl - tu asesor financiero FinAI desde la terminal",
		Long: `finaictl habla con un servidor FinAI: conversá con el asesor, completá el checklist
financiero y revisá tu historial.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("FINAI_SERVER", defaultServer), "FinAI server URL (FINAI_SERVER)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FINAI_TOKEN"), "access token (FINAI_TOKEN)")

	rootCmd.AddCommand(newSignupCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newChatCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newChecklistCmd(opts))
	rootCmd.AddCommand(newSnapshotCmd(opts))
	rootCmd.AddCommand(newProfileCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
