package consultation

import (
	"encoding/json"
	"time"

	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/compliance"
)

// Record persists one full consultation cycle. Rows are append-only in
// the pipeline; only de-identified patient data is ever stored.
type Record struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Patient (de-identified, initials only)
	Iniciais           string `gorm:"type:varchar(20);not null" json:"iniciais"`
	PacienteID         string `gorm:"type:varchar(20);index;not null" json:"paciente_id"`
	Idade              int    `gorm:"not null" json:"idade"`
	CenarioAtendimento string `gorm:"type:varchar(30);not null" json:"cenario_atendimento"`

	// Clinical. CID columns are tagged explicitly: the default naming
	// strategy would split the initialism into c_id_*.
	CIDPrincipalCode string `gorm:"column:cid_principal_code;type:varchar(10);index;not null" json:"cid_principal_code"`
	CIDPrincipalDesc string `gorm:"column:cid_principal_desc;type:varchar(200);not null" json:"cid_principal_desc"`
	Gravidade        string `gorm:"type:varchar(20);not null" json:"gravidade"`

	SinaisVitais     map[string]any                  `gorm:"serializer:json" json:"sinais_vitais"`
	SOAPJSON         map[string]clinical.SOAPSection `gorm:"serializer:json" json:"soap"`
	JSONUniversal    json.RawMessage                 `gorm:"serializer:json" json:"json_universal"`
	ClinicalDataJSON *clinical.ClinicalData          `gorm:"serializer:json" json:"clinical_data"`

	// Dialog
	DialogJSON    []clinical.Turn `gorm:"serializer:json" json:"dialog"`
	TotalFalas    int             `gorm:"default:0" json:"total_falas"`
	FalasMedico   int             `gorm:"default:0" json:"falas_medico"`
	FalasPaciente int             `gorm:"default:0" json:"falas_paciente"`

	// Documents
	DocumentsJSON map[string]string `gorm:"serializer:json" json:"documents"`

	TextoTranscrito  string    `gorm:"type:text" json:"texto_transcrito"`
	LGPDConformidade bool      `gorm:"default:true" json:"lgpd_conformidade"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Record) TableName() string { return "consultations" }

// BIRecord is the denormalized projection of a consultation used by the
// aggregate read path. It is written in the same transaction as its
// parent: one exists iff the other was committed.
type BIRecord struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	Iniciais          string         `gorm:"type:varchar(20);not null" json:"iniciais"`
	Cenario           string         `gorm:"type:varchar(30);index;not null" json:"cenario"`
	CIDPrincipal      string         `gorm:"column:cid_principal;type:varchar(10);index;not null" json:"cid_principal"`
	CIDDesc           string         `gorm:"column:cid_desc;type:varchar(200);not null" json:"cid_desc"`
	GravidadeEstimada string         `gorm:"type:varchar(20);not null" json:"gravidade_estimada"`
	SinaisVitais      map[string]any `gorm:"serializer:json" json:"sinais_vitais"`
	Hora              int            `json:"hora"`
	DiaSemana         string         `gorm:"type:varchar(20)" json:"dia_semana"`
	Timestamp         time.Time      `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (BIRecord) TableName() string { return "bi_records" }

// NewRecord assembles the persisted row from the pipeline artifacts.
func NewRecord(patient *compliance.Profile, rec *clinical.Record, docs map[string]string, transcript string) *Record {
	return &Record{
		Iniciais:           patient.Iniciais,
		PacienteID:         patient.PacienteID,
		Idade:              patient.Idade,
		CenarioAtendimento: patient.CenarioAtendimento,
		CIDPrincipalCode:   rec.ClinicalData.CIDPrincipal.Code,
		CIDPrincipalDesc:   rec.ClinicalData.CIDPrincipal.Desc,
		Gravidade:          rec.ClinicalData.Gravidade,
		SinaisVitais:       rec.ClinicalData.SinaisVitais,
		SOAPJSON:           rec.SOAP,
		JSONUniversal:      rec.JSONUniversal,
		ClinicalDataJSON:   &rec.ClinicalData,
		DialogJSON:         rec.Dialog,
		TotalFalas:         rec.Metadata.TotalFalas,
		FalasMedico:        rec.Metadata.FalasMedico,
		FalasPaciente:      rec.Metadata.FalasPaciente,
		DocumentsJSON:      docs,
		TextoTranscrito:    transcript,
		LGPDConformidade:   true,
	}
}

// NewBIRecord derives the aggregate projection from the same artifacts
// plus the capture timestamp.
func NewBIRecord(patient *compliance.Profile, rec *clinical.Record, at time.Time) *BIRecord {
	at = at.UTC()
	return &BIRecord{
		Iniciais:          patient.Iniciais,
		Cenario:           patient.CenarioAtendimento,
		CIDPrincipal:      rec.ClinicalData.CIDPrincipal.Code,
		CIDDesc:           rec.ClinicalData.CIDPrincipal.Desc,
		GravidadeEstimada: rec.ClinicalData.Gravidade,
		SinaisVitais:      rec.ClinicalData.SinaisVitais,
		Hora:              at.Hour(),
		DiaSemana:         at.Weekday().String(),
	}
}
