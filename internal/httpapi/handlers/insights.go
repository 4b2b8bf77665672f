package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/common"
)

type insightsReq struct {
	Transcricao string `json:"transcricao" binding:"required"`
	Contexto    string `json:"contexto"`
}

// ClinicalInsights is the live copilot: red flags, differentials and the
// next crucial question for an in-progress consultation.
func (h *Handler) ClinicalInsights(c *gin.Context) {
	var req insightsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "transcricao é obrigatória")
		return
	}
	if req.Contexto == "" {
		req.Contexto = "Consultório"
	}

	systemPrompt := fmt.Sprintf(
		"Você é um assistente sênior de inteligência clínica. O contexto deste atendimento é: %s. "+
			"Analise a transcrição em tempo real e forneça:\n"+
			"1. Sinais de Alerta (Red Flags) imediatos;\n"+
			"2. Três Diagnósticos Diferenciais (priorizando gravidade/probabilidade);\n"+
			"3. A próxima pergunta crucial para esclarecer o quadro.\n\n"+
			"Sugira USG Point-of-Care (POCUS) APENAS se houver indicação clínica específica e clara baseada nos sintomas; evite sugestões protocolares genéricas.",
		req.Contexto,
	)

	analise, err := h.Chat.Chat(c.Request.Context(), []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: req.Transcricao},
	})
	if err != nil {
		log.Printf("[ClinicalInsights] failed err=%v", err)
		common.Fail(c, http.StatusInternalServerError, 50030, "erro ao processar insights clínicos")
		return
	}

	common.OK(c, gin.H{"analise_clinica": analise})
}

type systematizeReq struct {
	TranscricaoCompleta string `json:"transcricao_completa" binding:"required"`
	Contexto            string `json:"contexto"`
}

// Systematize generates the five structured documents straight from a raw
// transcript, without running the persistence pipeline.
func (h *Handler) Systematize(c *gin.Context) {
	var req systematizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "transcricao_completa é obrigatória")
		return
	}

	docs, err := h.DocGen.Systematize(c.Request.Context(), req.TranscricaoCompleta, req.Contexto)
	if err != nil {
		log.Printf("[Systematize] failed err=%v", err)
		common.Fail(c, http.StatusInternalServerError, 50031, "erro ao sistematizar consulta")
		return
	}

	common.OK(c, docs)
}
