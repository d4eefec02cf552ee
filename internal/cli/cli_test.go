package cli

import (
	"finai-backend/internal/checklist"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"1500":       "1500",
		"$ 1.500,50": "1500.5",
		"1500.25":    "1500.25",
		"":           "0",
	}
	for in, want := range cases {
		got, err := parseAmount(in)
		if err != nil {
			t.Errorf("parseAmount(%q): %v", in, err)
			continue
		}
		if got.String() != want {
			t.Errorf("parseAmount(%q) = %s, want %s", in, got, want)
		}
	}
	for _, bad := range []string{"-10", "abc"} {
		if _, err := parseAmount(bad); err == nil {
			t.Errorf("parseAmount(%q) accepted", bad)
		}
	}
}

func TestRunChecklistWithGoBack(t *testing.T) {
	s, err := checklist.NewSession(checklist.DefaultDefinition())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	wentBack := false
	pick := func(step checklist.Step, total int, canGoBack bool) (string, bool, error) {
		if step.Index == 0 && canGoBack {
			t.Fatal("back offered on the first step")
		}
		if step.Index == 2 && !wentBack {
			wentBack = true
			return "", true, nil
		}
		return step.Question.Options[len(step.Question.Options)-1].Value, false, nil
	}

	done, err := runChecklist(s, pick)
	if err != nil || !done {
		t.Fatalf("runChecklist = %v, %v", done, err)
	}
	if got := len(s.Answers()); got != s.TotalSteps() {
		t.Errorf("answers = %d, want %d", got, s.TotalSteps())
	}
}

func TestOptionValue(t *testing.T) {
	q := checklist.DefaultDefinition().Sections[0].Questions[0]
	v, back, err := optionValue(q, q.Options[1].Label)
	if err != nil || back || v != q.Options[1].Value {
		t.Errorf("optionValue = %q, %v, %v", v, back, err)
	}
	if _, back, _ := optionValue(q, backOption); !back {
		t.Error("back option not recognized")
	}
}

func TestComposeMessage(t *testing.T) {
	if _, err := composeMessage("  ", ""); err == nil {
		t.Error("empty message accepted")
	}
	path := filepath.Join(t.TempDir(), "notas.md")
	if err := os.WriteFile(path, []byte("gasto 100"), 0o600); err != nil {
		t.Fatal(err)
	}
	msg, err := composeMessage("¿qué opinás?", path)
	if err != nil {
		t.Fatalf("composeMessage: %v", err)
	}
	if !strings.HasPrefix(msg, "[DOCUMENTO ADJUNTO: notas.md]") || !strings.HasSuffix(msg, "¿qué opinás?") {
		t.Errorf("message = %q", msg)
	}
}

func TestRootCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"signup", "login", "chat", "history", "checklist", "snapshot", "profile"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered: %v", name, err)
		}
	}
}
