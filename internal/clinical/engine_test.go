package clinical

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lucashml/medscribe/internal/ai"
)

type fakeJSONChat struct {
	out string
	err error
}

func (f *fakeJSONChat) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	return f.ChatJSON(ctx, msgs)
}

func (f *fakeJSONChat) ChatJSON(ctx context.Context, msgs []ai.Message) (string, error) {
	_ = ctx
	_ = msgs
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

const goodOutput = `{
  "soap": {
    "S": {"title": "Subjetivo", "content": "Dor torácica há 2 horas"},
    "A": {"title": "Avaliação", "content": "Provável síndrome coronariana"}
  },
  "clinicalData": {
    "cid_principal": {"code": "I20.0", "desc": "Angina instável"},
    "gravidade": "Grave",
    "sinais_vitais": {"fc": 104, "pa": "150/95"},
    "medicacoes_atuais": ["AAS"],
    "alergias": [],
    "comorbidades": ["HAS"]
  },
  "jsonUniversal": {"score_heart": 6},
  "dialog": [
    {"speaker": "Médico", "text": "O que a senhora sente?"},
    {"speaker": "Paciente", "text": "Dor no peito."},
    {"speaker": "Paciente", "text": "Começou de repente."}
  ]
}`

func TestProcess_StructuresRecord(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: goodOutput})

	rec, err := e.Process(context.Background(), "transcrição da consulta")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if rec.ClinicalData.CIDPrincipal.Code != "I20.0" {
		t.Fatalf("unexpected cid: %+v", rec.ClinicalData.CIDPrincipal)
	}
	if rec.ClinicalData.Gravidade != GravidadeGrave {
		t.Fatalf("unexpected gravidade: %s", rec.ClinicalData.Gravidade)
	}
	if rec.SOAP["S"].Content == "" {
		t.Fatalf("subjective section missing")
	}
	if len(rec.JSONUniversal) == 0 {
		t.Fatalf("jsonUniversal must pass through opaquely")
	}

	// Turn attribution: 1 médico, 2 paciente.
	if rec.Metadata.TotalFalas != 3 || rec.Metadata.FalasMedico != 1 || rec.Metadata.FalasPaciente != 2 {
		t.Fatalf("unexpected counts: %+v", rec.Metadata)
	}
	if rec.Metadata.ProcessadoEm == "" {
		t.Fatalf("processado_em not stamped")
	}
}

func TestProcess_ToleratesMarkdownFences(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: "```json\n" + goodOutput + "\n```"})

	rec, err := e.Process(context.Background(), "texto")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if rec.ClinicalData.CIDPrincipal.Code != "I20.0" {
		t.Fatalf("fenced output not parsed: %+v", rec.ClinicalData)
	}
}

func TestProcess_EmptyTextRejected(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: goodOutput})
	if _, err := e.Process(context.Background(), "   \n"); err == nil {
		t.Fatalf("expected error on empty transcription")
	}
}

func TestProcess_ChatFailureWrapped(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{err: errors.New("upstream down")})
	_, err := e.Process(context.Background(), "texto")
	if err == nil || !strings.Contains(err.Error(), "structuring call failed") {
		t.Fatalf("expected wrapped chat failure, got %v", err)
	}
}

func TestProcess_UnparsableOutput(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: "desculpe, não consegui"})
	if _, err := e.Process(context.Background(), "texto"); err == nil {
		t.Fatalf("expected error on non-JSON output")
	}
}

func TestProcess_EngineReportedFailure(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: `{"success": false, "error": "transcrição insuficiente"}`})
	_, err := e.Process(context.Background(), "texto")
	if err == nil || !strings.Contains(err.Error(), "transcrição insuficiente") {
		t.Fatalf("expected reported failure, got %v", err)
	}
}

func TestProcess_MissingDiagnosisCode(t *testing.T) {
	e := NewLLMEngine(&fakeJSONChat{out: `{"soap": {}, "clinicalData": {"cid_principal": {"code": "", "desc": ""}}, "dialog": []}`})
	_, err := e.Process(context.Background(), "texto")
	if !errors.Is(err, ErrEmptyDiagnosis) {
		t.Fatalf("expected ErrEmptyDiagnosis, got %v", err)
	}
}
