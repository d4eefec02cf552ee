package llm

import (
	"context"
	"errors"
	"finai-backend/internal/config"
	"finai-backend/internal/models"
	"io"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	chunks []*schema.Message
	err    error
	input  []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.ConcatMessages(f.chunks)
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray(f.chunks), nil
}

func TestEinoProviderStreamsFragmentsInOrder(t *testing.T) {
	fake := &fakeChatModel{chunks: []*schema.Message{
		schema.AssistantMessage("Hola", nil),
		schema.AssistantMessage("", nil), // reasoning-only delta
		schema.AssistantMessage(" ", nil),
		schema.AssistantMessage("mundo", nil),
	}}
	p := NewEinoProvider(fake)

	stream, err := p.StreamCompletion(context.Background(), "sé breve", []models.ChatTurn{
		{Role: models.RoleUser, Content: "hola"},
		{Role: models.RoleAssistant, Content: "¿en qué te ayudo?"},
		{Role: models.RoleUser, Content: "¿cómo ahorro?"},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	var got []string
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		got = append(got, frag)
	}
	want := []string{"Hola", " ", "mundo"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if len(fake.input) != 4 || fake.input[0].Role != schema.System || fake.input[0].Content != "sé breve" {
		t.Fatalf("expected system directive first, got %+v", fake.input)
	}
	if fake.input[2].Role != schema.Assistant {
		t.Fatalf("expected assistant turn preserved, got %s", fake.input[2].Role)
	}
}

func TestEinoProviderPropagatesModelError(t *testing.T) {
	p := NewEinoProvider(&fakeChatModel{err: errors.New("quota exceeded")})
	if _, err := p.StreamCompletion(context.Background(), "", []models.ChatTurn{{Role: models.RoleUser, Content: "x"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildMessagesRejectsUnknownRole(t *testing.T) {
	_, err := BuildMessages("d", []models.ChatTurn{{Role: "system", Content: "x"}})
	if !errors.Is(err, ErrUnsupportedRole) {
		t.Fatalf("expected ErrUnsupportedRole, got %v", err)
	}
}

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()
	fake := &fakeChatModel{}
	r.Register("fake", func(context.Context, config.LLMConfig) (model.BaseChatModel, error) { return fake, nil })

	if _, err := r.Build(context.Background(), config.LLMConfig{Provider: "fake", Model: "m"}); err == nil {
		t.Fatal("expected missing API key to be rejected")
	}
	if _, err := r.Build(context.Background(), config.LLMConfig{Provider: "nope", Model: "m", APIKey: "k"}); err == nil {
		t.Fatal("expected unknown provider to be rejected")
	}
	p, err := r.Build(context.Background(), config.LLMConfig{Provider: "fake", Model: "m", APIKey: "k"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.model != fake {
		t.Fatal("expected registry to wrap the factory's model")
	}
}

func TestDefaultRegistryNames(t *testing.T) {
	names := DefaultRegistry().Names()
	if len(names) != 2 || names[0] != config.ProviderArk || names[1] != config.ProviderOpenAI {
		t.Fatalf("unexpected providers %v", names)
	}
}
