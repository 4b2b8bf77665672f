// Package documents renders the textual artifacts of a consultation:
// prescription, attestation, exam list, patient guidance and chart note.
// Generation failures never abort the pipeline; callers substitute an
// empty set.
package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/compliance"
)

// Document kinds keyed in the generated set.
const (
	KindPrescription = "prescription"
	KindAttestation  = "attestation"
	KindExamList     = "exam_list"
	KindGuidance     = "guidance"
	KindChartNote    = "chart_note"
)

type Generator interface {
	GenerateAll(ctx context.Context, rec *clinical.Record, patient *compliance.Profile) (map[string]string, error)
}

const generatePrompt = `Você é um escriba médico assistente de alto nível. Receba o quadro clínico estruturado e gere 5 documentos.
Adapte o tom e a conduta à gravidade do caso (conduta imediata para emergência, foco preventivo para consultório).
Retorne APENAS um objeto JSON válido com as chaves:
1. 'prontuario': texto com HDA, Comorbidades, Exame Físico (se citado), Hipóteses e Conduta.
2. 'receituario': medicamentos citados com posologia sugerida e via de administração.
3. 'atestado': sugestão de dias de repouso e CID-10 correspondente.
4. 'exames': exames ditados pelo médico, mais os exames padrão-ouro para o quadro descrito. Separe em 'Exames Solicitados na Transcrição' e 'Exames Sugeridos pelo Protocolo'.
5. 'orientacoes': recomendações em linguagem clara e leiga para o paciente.
Formate o texto de cada chave com quebras de linha amigáveis.`

type docPayload struct {
	Prontuario  string `json:"prontuario"`
	Receituario string `json:"receituario"`
	Atestado    string `json:"atestado"`
	Exames      string `json:"exames"`
	Orientacoes string `json:"orientacoes"`
}

// LLMGenerator renders documents through a JSON-mode chat call.
type LLMGenerator struct {
	chat ai.JSONChatProvider
}

func NewLLMGenerator(chat ai.JSONChatProvider) *LLMGenerator {
	return &LLMGenerator{chat: chat}
}

func (g *LLMGenerator) GenerateAll(ctx context.Context, rec *clinical.Record, patient *compliance.Profile) (map[string]string, error) {
	summary, err := json.Marshal(map[string]any{
		"paciente":     patient,
		"clinicalData": rec.ClinicalData,
		"soap":         rec.SOAP,
	})
	if err != nil {
		return nil, err
	}

	payload, err := g.generate(ctx, fmt.Sprintf("Contexto: %s\n\nQuadro clínico: %s", patient.CenarioAtendimento, summary))
	if err != nil {
		return nil, err
	}
	return payload.toSet(), nil
}

// Systematize produces the same five documents straight from a raw
// transcript, without structuring or persistence.
func (g *LLMGenerator) Systematize(ctx context.Context, transcript, contexto string) (map[string]string, error) {
	if contexto == "" {
		contexto = "Consultório"
	}
	payload, err := g.generate(ctx, fmt.Sprintf("Contexto: %s\n\nTranscrição: %s", contexto, transcript))
	if err != nil {
		return nil, err
	}
	return payload.toSet(), nil
}

func (g *LLMGenerator) generate(ctx context.Context, userContent string) (*docPayload, error) {
	raw, err := g.chat.ChatJSON(ctx, []ai.Message{
		{Role: "system", Content: generatePrompt},
		{Role: "user", Content: userContent},
	})
	if err != nil {
		return nil, fmt.Errorf("documents: generation call failed: %w", err)
	}

	var payload docPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("documents: unparsable generator output: %w", err)
	}
	return &payload, nil
}

func (p *docPayload) toSet() map[string]string {
	return map[string]string{
		KindChartNote:    p.Prontuario,
		KindPrescription: p.Receituario,
		KindAttestation:  p.Atestado,
		KindExamList:     p.Exames,
		KindGuidance:     p.Orientacoes,
	}
}
