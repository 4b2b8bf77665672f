package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/common"
	"github.com/lucashml/medscribe/internal/compliance"
	"github.com/lucashml/medscribe/internal/consultation"
)

type analyzeReq struct {
	NomeCompleto       string `json:"nome_completo"`
	Idade              int    `json:"idade"`
	CenarioAtendimento string `json:"cenario_atendimento"`
	TextoTranscrito    string `json:"texto_transcrito" binding:"required"`
}

// analyzeResp mirrors the wire contract of the analyze pipeline. Failure
// responses carry success=false plus the message list; HTTP status stays
// 200 so clients branch on the flag, not the transport.
type analyzeResp struct {
	Success        bool                            `json:"success"`
	Patient        *compliance.Profile             `json:"patient,omitempty"`
	SOAP           map[string]clinical.SOAPSection `json:"soap,omitempty"`
	ClinicalData   *clinical.ClinicalData          `json:"clinicalData,omitempty"`
	JSONUniversal  json.RawMessage                 `json:"jsonUniversal,omitempty"`
	Dialog         []clinical.Turn                 `json:"dialog"`
	Metadata       *clinical.TalkCounts            `json:"metadata,omitempty"`
	Documents      map[string]string               `json:"documents,omitempty"`
	ConsultationID uint64                          `json:"consultation_id,omitempty"`
	Errors         []string                        `json:"errors,omitempty"`
}

func (h *Handler) defaultedInput(req analyzeReq) consultation.Input {
	in := consultation.Input{
		NomeCompleto:       req.NomeCompleto,
		Idade:              req.Idade,
		CenarioAtendimento: req.CenarioAtendimento,
		TextoTranscrito:    req.TextoTranscrito,
	}
	if strings.TrimSpace(in.NomeCompleto) == "" {
		in.NomeCompleto = "Paciente Anônimo"
	}
	if in.CenarioAtendimento == "" {
		in.CenarioAtendimento = "PS"
	}
	return in
}

func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, analyzeResp{
			Success: false,
			Errors:  []string{"texto_transcrito é obrigatório"},
		})
		return
	}

	log.Printf("[Analyze] request received length=%d", len(req.TextoTranscrito))

	res, err := h.ConsultSvc.Analyze(c.Request.Context(), h.defaultedInput(req))
	if err != nil {
		var se *consultation.StageError
		if errors.As(err, &se) {
			c.JSON(http.StatusOK, analyzeResp{Success: false, Errors: se.Messages})
			return
		}
		c.JSON(http.StatusOK, analyzeResp{Success: false, Errors: []string{err.Error()}})
		return
	}

	c.JSON(http.StatusOK, analyzeResp{
		Success:        true,
		Patient:        res.Patient,
		SOAP:           res.Clinical.SOAP,
		ClinicalData:   &res.Clinical.ClinicalData,
		JSONUniversal:  res.Clinical.JSONUniversal,
		Dialog:         res.Clinical.Dialog,
		Metadata:       &res.Clinical.Metadata,
		Documents:      res.Documents,
		ConsultationID: res.ConsultationID,
	})
}

// AnalyzeAsync runs the compliance gate synchronously, queues the rest of
// the pipeline and returns a job id. Only the de-identified profile is
// stored on the job row.
func (h *Handler) AnalyzeAsync(c *gin.Context) {
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async analyze unavailable")
		return
	}

	var req analyzeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	in := h.defaultedInput(req)
	patient, gateErrs := compliance.Process(compliance.Input{
		NomeCompleto:       in.NomeCompleto,
		Idade:              in.Idade,
		CenarioAtendimento: in.CenarioAtendimento,
	})
	if len(gateErrs) > 0 {
		c.JSON(http.StatusOK, analyzeResp{Success: false, Errors: gateErrs})
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	j := &consultation.Job{
		ID:                 jobID,
		Iniciais:           patient.Iniciais,
		PacienteID:         patient.PacienteID,
		Idade:              patient.Idade,
		CenarioAtendimento: patient.CenarioAtendimento,
		TextoTranscrito:    in.TextoTranscrito,
		IdempotencyKey:     idempoKeyPtr,
		Status:             consultation.JobQueued,
	}

	j, created, err := h.ConsultSvc.CreateJobOrGetExisting(c.Request.Context(), j)
	if err != nil {
		log.Printf("[AnalyzeAsync] create job failed job_id=%s err=%v", jobID, err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if created {
		if err := h.Rabbit.PublishAnalyzeJob(c.Request.Context(), j.ID); err != nil {
			log.Printf("[AnalyzeAsync] publish failed job_id=%s err=%v", j.ID, err)
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": j.ID})
}

func (h *Handler) GetAnalyzeJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.ConsultSvc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":              j.ID,
			"status":          j.Status,
			"consultation_id": j.ConsultationID,
			"stage":           j.Stage,
			"error":           j.Error,
			"created_at":      j.CreatedAt,
			"updated_at":      j.UpdatedAt,
		},
	})
}
