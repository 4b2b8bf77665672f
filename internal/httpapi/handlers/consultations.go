package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lucashml/medscribe/internal/common"
	"github.com/lucashml/medscribe/internal/consultation"
)

func consultationSummary(r consultation.Record) gin.H {
	return gin.H{
		"id":                  r.ID,
		"iniciais":            r.Iniciais,
		"paciente_id":         r.PacienteID,
		"idade":               r.Idade,
		"cenario_atendimento": r.CenarioAtendimento,
		"cid_principal":       gin.H{"code": r.CIDPrincipalCode, "desc": r.CIDPrincipalDesc},
		"gravidade":           r.Gravidade,
		"sinais_vitais":       r.SinaisVitais,
		"total_falas":         r.TotalFalas,
		"created_at":          r.CreatedAt,
	}
}

func (h *Handler) ListConsultations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	cenario := c.Query("cenario")
	gravidade := c.Query("gravidade")

	recs, err := h.ConsultSvc.List(c.Request.Context(), limit, offset, cenario, gravidade)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to list consultations")
		return
	}

	out := make([]gin.H, 0, len(recs))
	for _, r := range recs {
		out = append(out, consultationSummary(r))
	}

	common.OK(c, gin.H{
		"count": len(out),
		"data":  out,
	})
}

func (h *Handler) GetConsultation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid consultation id")
		return
	}

	r, err := h.ConsultSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "consulta não encontrada")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":                  r.ID,
		"iniciais":            r.Iniciais,
		"paciente_id":         r.PacienteID,
		"idade":               r.Idade,
		"cenario_atendimento": r.CenarioAtendimento,
		"cid_principal":       gin.H{"code": r.CIDPrincipalCode, "desc": r.CIDPrincipalDesc},
		"gravidade":           r.Gravidade,
		"sinais_vitais":       r.SinaisVitais,
		"soap":                r.SOAPJSON,
		"jsonUniversal":       r.JSONUniversal,
		"clinicalData":        r.ClinicalDataJSON,
		"dialog":              r.DialogJSON,
		"documents":           r.DocumentsJSON,
		"metadata": gin.H{
			"total_falas":    r.TotalFalas,
			"falas_medico":   r.FalasMedico,
			"falas_paciente": r.FalasPaciente,
		},
		"created_at": r.CreatedAt,
	})
}
