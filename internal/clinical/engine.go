package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lucashml/medscribe/internal/ai"
)

// Engine converts free-form consultation text into a structured clinical
// record. Implementations must return an error whenever they cannot
// produce a usable record; the pipeline treats any failure as fatal.
type Engine interface {
	Process(ctx context.Context, text string) (*Record, error)
}

var ErrEmptyDiagnosis = errors.New("clinical: engine returned no principal diagnosis code")

const systemPrompt = `Você é um motor de estruturação clínica. Receba a transcrição de uma consulta e retorne APENAS um objeto JSON válido com as chaves:
"soap": objeto com as chaves "S", "O", "A", "P", cada uma {"title", "content", "sinais_vitais" (opcional)};
"clinicalData": {"cid_principal": {"code", "desc"}, "gravidade" ("Leve"|"Moderada"|"Grave"), "sinais_vitais", "medicacoes_atuais", "alergias", "comorbidades"};
"jsonUniversal": objeto livre com dados clínicos adicionais;
"dialog": lista de {"speaker", "text"} com cada fala da consulta.
Não invente dados não presentes na transcrição. O code do CID-10 é obrigatório.`

type engineResp struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`

	SOAP          map[string]SOAPSection `json:"soap"`
	ClinicalData  ClinicalData           `json:"clinicalData"`
	JSONUniversal json.RawMessage        `json:"jsonUniversal"`
	Dialog        []Turn                 `json:"dialog"`
}

// LLMEngine structures text through a JSON-mode chat call.
type LLMEngine struct {
	chat ai.JSONChatProvider
}

func NewLLMEngine(chat ai.JSONChatProvider) *LLMEngine {
	return &LLMEngine{chat: chat}
}

func (e *LLMEngine) Process(ctx context.Context, text string) (*Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("clinical: empty transcription")
	}

	raw, err := e.chat.ChatJSON(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("clinical: structuring call failed: %w", err)
	}

	var decoded engineResp
	if err := json.Unmarshal([]byte(stripFences(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("clinical: unparsable engine output: %w", err)
	}
	// A non-success flag from the engine is the same as a thrown fault.
	if decoded.Success != nil && !*decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "engine reported failure"
		}
		return nil, fmt.Errorf("clinical: %s", msg)
	}
	if strings.TrimSpace(decoded.ClinicalData.CIDPrincipal.Code) == "" {
		return nil, ErrEmptyDiagnosis
	}

	rec := &Record{
		SOAP:          decoded.SOAP,
		ClinicalData:  decoded.ClinicalData,
		JSONUniversal: decoded.JSONUniversal,
		Dialog:        decoded.Dialog,
		Metadata:      countTurns(decoded.Dialog),
	}
	rec.Metadata.ProcessadoEm = time.Now().UTC().Format(time.RFC3339)
	return rec, nil
}

// countTurns attributes dialogue turns to the clinician or the patient.
func countTurns(dialog []Turn) TalkCounts {
	var tc TalkCounts
	for _, t := range dialog {
		tc.TotalFalas++
		sp := strings.ToLower(t.Speaker)
		if strings.Contains(sp, "paciente") {
			tc.FalasPaciente++
		} else {
			tc.FalasMedico++
		}
	}
	return tc
}

// stripFences tolerates models that wrap the JSON object in markdown fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
