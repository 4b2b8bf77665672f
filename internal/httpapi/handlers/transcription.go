package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/common"
)

// Transcribe receives an audio upload and returns the diarized transcript.
// Provider faults map to distinct statuses so the client can tell a
// missing key from a throttle from an outage.
func (h *Handler) Transcribe(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "no file uploaded")
		return
	}
	doctorName := c.PostForm("doctor_name")

	f, err := fileHeader.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "unreadable upload")
		return
	}
	defer f.Close()

	text, err := h.TranscriptionSvc.Transcribe(c.Request.Context(), f, fileHeader.Filename, doctorName)
	if err != nil {
		switch ai.KindOf(err) {
		case ai.KindMissingKey:
			common.Fail(c, http.StatusServiceUnavailable, 50310,
				"Modelo de IA indisponível — configure sua API Key em Configurações.")
		case ai.KindAuth:
			common.Fail(c, http.StatusUnauthorized, 40110,
				"Modelo de IA indisponível — API Key inválida. Verifique em Configurações.")
		case ai.KindRateLimited:
			common.Fail(c, http.StatusTooManyRequests, 42910,
				"Limite de requisições da IA atingido. Aguarde alguns instantes e tente novamente.")
		case ai.KindConnectivity:
			common.Fail(c, http.StatusServiceUnavailable, 50311,
				"Serviço de IA indisponível — não foi possível conectar ao servidor. Verifique sua conexão.")
		default:
			log.Printf("[Transcribe] failed err=%v", err)
			common.Fail(c, http.StatusInternalServerError, 50010, "Erro na transcrição: "+err.Error())
		}
		return
	}

	common.OK(c, gin.H{"text": text})
}
