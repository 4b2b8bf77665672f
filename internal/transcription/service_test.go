package transcription

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/llmconfig"
)

type fakeClient struct {
	transcribeCalls int
	chatCalls       int

	rawText       string
	transcribeErr error

	formatted string
	chatErr   error

	lastFilename string
	lastChatMsgs []ai.Message
}

func (f *fakeClient) Transcribe(ctx context.Context, audio io.Reader, filename, lang string) (string, error) {
	_ = ctx
	_ = lang
	f.transcribeCalls++
	f.lastFilename = filename
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.rawText, nil
}

func (f *fakeClient) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	_ = ctx
	f.chatCalls++
	f.lastChatMsgs = msgs
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.formatted, nil
}

func newTestService(t *testing.T, fc *fakeClient, apiKey string) *Service {
	t.Helper()
	t.Setenv("TEST_TRANSCRIBE_KEY", apiKey)
	cfg := llmconfig.NewService(filepath.Join(t.TempDir(), "llm.toml"), "TEST_TRANSCRIBE_KEY")
	svc := NewService(cfg, "https://api.openai.com/v1")
	svc.newClient = func(llmconfig.Config) Client { return fc }
	return svc
}

func TestTranscribe_TwoStepPipeline(t *testing.T) {
	fc := &fakeClient{
		rawText:   "to com dor no peito doutor",
		formatted: "Médico: O que sente?\nPaciente: Estou com dor no peito.",
	}
	svc := newTestService(t, fc, "sk-test-0123456789")

	out, err := svc.Transcribe(context.Background(), strings.NewReader("fake-webm-bytes"), "rec.webm", "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if out != fc.formatted {
		t.Fatalf("expected formatted dialogue, got %q", out)
	}
	if fc.transcribeCalls != 1 || fc.chatCalls != 1 {
		t.Fatalf("expected one call per step, got %d/%d", fc.transcribeCalls, fc.chatCalls)
	}
	if fc.lastFilename != "audio.webm" {
		t.Fatalf("unexpected upload filename: %q", fc.lastFilename)
	}
}

func TestTranscribe_MissingKey(t *testing.T) {
	fc := &fakeClient{rawText: "texto"}
	svc := newTestService(t, fc, "")

	_, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "")
	if ai.KindOf(err) != ai.KindMissingKey {
		t.Fatalf("expected missing-key fault, got %v", err)
	}
	if fc.transcribeCalls != 0 {
		t.Fatalf("no provider call may happen without a key")
	}
}

func TestTranscribe_EmptyAudioShortCircuits(t *testing.T) {
	fc := &fakeClient{rawText: "   \n"}
	svc := newTestService(t, fc, "sk-test-0123456789")

	out, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty result, got %q", out)
	}
	if fc.chatCalls != 0 {
		t.Fatalf("formatting must not run on an empty transcript")
	}
}

func TestTranscribe_FormattingFaultFallsBackToRaw(t *testing.T) {
	fc := &fakeClient{
		rawText: "fala bruta sem formatação",
		chatErr: errors.New("model overloaded"),
	}
	svc := newTestService(t, fc, "sk-test-0123456789")

	out, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "")
	if err != nil {
		t.Fatalf("formatting fault must not fail the call: %v", err)
	}
	if out != fc.rawText {
		t.Fatalf("expected raw transcript verbatim, got %q", out)
	}
}

func TestTranscribe_SpeechToTextFaultPropagates(t *testing.T) {
	fc := &fakeClient{
		transcribeErr: &ai.ProviderError{Kind: ai.KindRateLimited, Msg: "429"},
	}
	svc := newTestService(t, fc, "sk-test-0123456789")

	_, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.webm", "")
	if ai.KindOf(err) != ai.KindRateLimited {
		t.Fatalf("expected rate-limit fault to propagate, got %v", err)
	}
	if fc.chatCalls != 0 {
		t.Fatalf("formatting must not run after a speech-to-text fault")
	}
}

func TestTranscribe_DoctorNameDrivesDiarizationLabels(t *testing.T) {
	fc := &fakeClient{rawText: "fala", formatted: "Dr. Souza: ..."}
	svc := newTestService(t, fc, "sk-test-0123456789")

	if _, err := svc.Transcribe(context.Background(), strings.NewReader("x"), "a.mp3", "Dr. Souza"); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(fc.lastChatMsgs) == 0 || !strings.Contains(fc.lastChatMsgs[0].Content, "Dr. Souza") {
		t.Fatalf("system prompt missing doctor label: %+v", fc.lastChatMsgs)
	}
	if fc.lastFilename != "audio.mp3" {
		t.Fatalf("extension hint not propagated: %q", fc.lastFilename)
	}
}
