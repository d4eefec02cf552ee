package cli

import (
	"context"
	"errors"
	"finai-backend/internal/checklist"
	"finai-backend/internal/client"
	"finai-backend/internal/models"
	"finai-backend/internal/services"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSignupCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Crear una cuenta",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := PromptForSignup()
			if err != nil {
				return err
			}
			c := opts.client()
			resp, err := c.Signup(cmd.Context(), creds.Email, creds.Password, creds.Name)
			if err != nil {
				return err
			}
			DisplaySuccess(fmt.Sprintf("Cuenta creada para %s", resp.User.Email))
			DisplayToken(resp.AccessToken)
			return nil
		},
	}
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión y mostrar el token de acceso",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := PromptForLogin()
			if err != nil {
				return err
			}
			resp, err := opts.client().Login(cmd.Context(), creds.Email, creds.Password)
			if err != nil {
				return err
			}
			DisplaySuccess(fmt.Sprintf("Hola %s", displayName(resp.User)))
			DisplayToken(resp.AccessToken)
			return nil
		},
	}
}

func newChatCmd(opts *globalOptions) *cobra.Command {
	var attach string
	cmd := &cobra.Command{
		Use:   "chat [MENSAJE...]",
		Short: "Enviar un mensaje al asesor y ver la respuesta en vivo",
		Long: `Envía un mensaje al asesor. Con un token, la conversación continúa donde quedó.
Ejemplo: finaictl chat "¿Cómo armo un fondo de emergencia?" --attach gastos.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := composeMessage(strings.Join(args, " "), attach)
			if err != nil {
				return err
			}
			c := opts.client()
			history, err := priorTurns(cmd.Context(), c)
			if err != nil {
				return err
			}
			history = append(history, models.ChatTurn{Role: models.RoleUser, Content: content})

			fmt.Println(assistantLabel())
			if _, err := c.Chat(cmd.Context(), history, os.Stdout); err != nil {
				fmt.Println()
				return err
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVar(&attach, "attach", "", "adjuntar un archivo (.txt, .md, .csv, .json o imagen)")
	return cmd
}

// composeMessage builds the user turn from free text and an optional attachment.
func composeMessage(text, attachPath string) (string, error) {
	text = strings.TrimSpace(text)
	if attachPath == "" {
		if text == "" {
			return "", errors.New("escribí un mensaje o usá --attach")
		}
		return text, nil
	}
	doc, err := client.ReadAttachment(attachPath)
	if err != nil {
		return "", err
	}
	if text == "" {
		return doc, nil
	}
	return doc + "\n\n" + text, nil
}

// priorTurns returns the server-side history when the caller is identified.
func priorTurns(ctx context.Context, c *client.Client) ([]models.ChatTurn, error) {
	if c.Token() == "" {
		return nil, nil
	}
	msgs, err := c.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return services.ToTurns(msgs), nil
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Mostrar la conversación actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			if export {
				name, body, err := c.ExportHistory(cmd.Context())
				if err != nil {
					return err
				}
				name = filepath.Base(name)
				if err := os.WriteFile(name, body, 0o644); err != nil {
					return err
				}
				DisplaySuccess("Historial guardado en " + name)
				return nil
			}
			msgs, err := c.History(cmd.Context())
			if err != nil {
				return err
			}
			DisplayHistory(msgs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&export, "export", false, "descargar el historial como archivo de texto")
	return cmd
}

func newChecklistCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checklist",
		Short: "Completar el checklist financiero y recibir un diagnóstico",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			def, err := c.Definition(cmd.Context())
			if err != nil {
				return err
			}
			session, err := checklist.NewSession(def)
			if err != nil {
				return err
			}
			DisplayHeader(def.Title)

			done, err := runChecklist(session, PromptForOption)
			if err != nil || !done {
				return err
			}
			return deliverDiagnosis(cmd.Context(), c, func(ctx context.Context, sink *client.ChecklistSink) (checklist.Diagnosis, error) {
				return session.Finish(ctx, sink, sink)
			})
		},
	}
}

// optionPicker asks for one step; back is true when the user chose to go back.
type optionPicker func(step checklist.Step, total int, canGoBack bool) (value string, back bool, err error)

// runChecklist walks the session until the last question is answered and confirmed.
func runChecklist(s *checklist.Session, pick optionPicker) (bool, error) {
	for {
		step := s.Current()
		value, back, err := pick(step, s.TotalSteps(), s.Step() > 0)
		if err != nil {
			return false, err
		}
		if back {
			s.GoBack()
			continue
		}
		if err := s.SelectOption(step.Index, value); err != nil {
			return false, err
		}
		if s.CanFinish() {
			return true, nil
		}
	}
}

func deliverDiagnosis(ctx context.Context, c *client.Client, finish func(context.Context, *client.ChecklistSink) (checklist.Diagnosis, error)) error {
	if c.Token() == "" {
		DisplayWarning("Sin token: el perfil no se guardará y la conversación no quedará registrada.")
	}
	history, err := priorTurns(ctx, c)
	if err != nil {
		return err
	}
	sink := &client.ChecklistSink{Client: c, Out: os.Stdout, History: history}

	fmt.Println(assistantLabel())
	d, err := finish(ctx, sink)
	fmt.Println()
	if err != nil {
		return err
	}
	DisplayDiagnosis(d)
	return nil
}

func newSnapshotCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Diagnóstico rápido a partir de tus números del mes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := PromptForSnapshot()
			if err != nil {
				return err
			}
			if err := snap.Validate(); err != nil {
				return err
			}
			c := opts.client()
			return deliverDiagnosis(cmd.Context(), c, func(ctx context.Context, sink *client.ChecklistSink) (checklist.Diagnosis, error) {
				answers := snap.Answers()
				if c.Token() != "" {
					if err := sink.SaveProfile(ctx, checklist.Payload{Answers: answers, CompletedAt: time.Now().UTC()}); err != nil {
						DisplayWarning("No se pudo guardar el perfil: " + err.Error())
					}
				}
				d := checklist.Diagnose(answers)
				return d, sink.SendPrompt(ctx, d.Prompt)
			})
		},
	}
}

func newProfileCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Ver el estado de tu perfil financiero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := opts.client().Profile(cmd.Context())
			if err != nil {
				return err
			}
			DisplayProfile(status)
			return nil
		},
	}
}

func displayName(u models.UserResponse) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
