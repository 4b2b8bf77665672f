package clinical

import "encoding/json"

// Severity values reported by the structuring engine.
const (
	GravidadeLeve     = "Leve"
	GravidadeModerada = "Moderada"
	GravidadeGrave    = "Grave"
)

type CID struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

type SOAPSection struct {
	Title        string         `json:"title"`
	Icon         string         `json:"icon,omitempty"`
	Content      string         `json:"content"`
	SinaisVitais map[string]any `json:"sinais_vitais,omitempty"`
}

type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type TalkCounts struct {
	TotalFalas    int    `json:"total_falas"`
	FalasMedico   int    `json:"falas_medico"`
	FalasPaciente int    `json:"falas_paciente"`
	ProcessadoEm  string `json:"processado_em,omitempty"`
}

type ClinicalData struct {
	CIDPrincipal     CID            `json:"cid_principal"`
	Gravidade        string         `json:"gravidade"`
	SinaisVitais     map[string]any `json:"sinais_vitais"`
	MedicacoesAtuais []string       `json:"medicacoes_atuais"`
	Alergias         []string       `json:"alergias"`
	Comorbidades     []string       `json:"comorbidades"`
}

// Record is the structured output of the structuring engine.
// JSONUniversal is an opaque extension slot: engine-specific payloads pass
// through it untouched instead of widening the typed fields.
type Record struct {
	SOAP          map[string]SOAPSection `json:"soap"`
	ClinicalData  ClinicalData           `json:"clinicalData"`
	JSONUniversal json.RawMessage        `json:"jsonUniversal,omitempty"`
	Dialog        []Turn                 `json:"dialog"`
	Metadata      TalkCounts             `json:"metadata"`
}
