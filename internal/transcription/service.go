// Package transcription converts an uploaded audio payload into a
// speaker-attributed dialogue. Speech-to-text is mandatory; the
// diarization/formatting pass degrades to the raw text on any fault.
package transcription

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/llmconfig"
)

// Client is the provider surface the sub-pipeline consumes: one
// speech-to-text call and one text-generation call.
type Client interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
	Chat(ctx context.Context, messages []ai.Message) (string, error)
}

const language = "pt"

type Service struct {
	cfg *llmconfig.Service

	// newClient is swapped in tests.
	newClient func(llmconfig.Config) Client
}

func NewService(cfg *llmconfig.Service, openAIBaseURL string) *Service {
	return &Service{
		cfg: cfg,
		newClient: func(c llmconfig.Config) Client {
			return ai.NewOpenAIClient(openAIBaseURL, c.APIKey, c.ChatModel, c.TranscriptionModel)
		},
	}
}

// Transcribe runs the two-step sub-pipeline: speech-to-text, then LLM
// speaker diarization. An empty raw transcript short-circuits to "";
// a formatting fault falls back to the raw transcript unmodified.
func (s *Service) Transcribe(ctx context.Context, audio io.Reader, filenameHint, doctorName string) (string, error) {
	cfg := s.cfg.Get()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", &ai.ProviderError{Kind: ai.KindMissingKey, Msg: "no api key configured"}
	}
	client := s.newClient(cfg)

	suffix := filepath.Ext(filenameHint)
	if suffix == "" {
		suffix = ".webm"
	}

	// Spool the upload to a scratch file so the provider call reads a
	// seekable payload; the file is removed on every exit path.
	tmp, err := os.CreateTemp("", "medscribe-audio-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("transcription: scratch file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, audio); err != nil {
		return "", fmt.Errorf("transcription: spool audio: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("transcription: rewind scratch file: %w", err)
	}

	rawText, err := client.Transcribe(ctx, tmp, "audio"+suffix, language)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rawText) == "" {
		return "", nil
	}

	return s.formatTranscript(ctx, client, rawText, doctorName), nil
}

func (s *Service) formatTranscript(ctx context.Context, client Client, rawText, doctorName string) string {
	docLabel := strings.TrimSpace(doctorName)
	if docLabel == "" {
		docLabel = "Médico"
	}

	systemPrompt := fmt.Sprintf(
		"You are a professional medical scribe. "+
			"Your task is to take a raw consultation transcript and format it into a clear dialogue. "+
			"Identify the speakers as '%s' and 'Paciente'. "+
			"Correct minor speech errors (stuttering, repetition) but keep the clinical content 100%% accurate. "+
			"Do not summarize. Keep the dialogue format: '%s: ... \\nPaciente: ...'",
		docLabel, docLabel,
	)

	formatted, err := client.Chat(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: rawText},
	})
	if err != nil || strings.TrimSpace(formatted) == "" {
		log.Printf("[transcription] diarization failed, returning raw transcript err=%v", err)
		return rawText
	}
	return formatted
}
