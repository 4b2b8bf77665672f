package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/common"
	"github.com/lucashml/medscribe/internal/llmconfig"
)

var (
	availableTranscriptionModels = []string{"whisper-1"}
	availableChatModels          = []string{"gpt-4o-mini", "gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"}
)

func settingsView(cfg llmconfig.Config) gin.H {
	return gin.H{
		"provider":                       cfg.Provider,
		"api_key_masked":                 llmconfig.MaskKey(cfg.APIKey),
		"has_api_key":                    cfg.APIKey != "",
		"transcription_model":            cfg.TranscriptionModel,
		"chat_model":                     cfg.ChatModel,
		"available_transcription_models": availableTranscriptionModels,
		"available_chat_models":          availableChatModels,
	}
}

func (h *Handler) GetLLMSettings(c *gin.Context) {
	common.OK(c, settingsView(h.LLM.Get()))
}

type llmSettingsUpdate struct {
	Provider           *string `json:"provider"`
	APIKey             *string `json:"api_key"`
	TranscriptionModel *string `json:"transcription_model"`
	ChatModel          *string `json:"chat_model"`
}

// UpdateLLMSettings applies a partial settings change; unspecified fields
// keep their current values.
func (h *Handler) UpdateLLMSettings(c *gin.Context) {
	var req llmSettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	cfg, err := h.LLM.Set(llmconfig.Update{
		Provider:           req.Provider,
		APIKey:             req.APIKey,
		TranscriptionModel: req.TranscriptionModel,
		ChatModel:          req.ChatModel,
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50020, "erro ao salvar configurações")
		return
	}

	common.OK(c, settingsView(cfg))
}

// TestLLMConnection verifies the stored key with a lightweight read-only
// provider call.
func (h *Handler) TestLLMConnection(c *gin.Context) {
	cfg := h.LLM.Get()
	if cfg.APIKey == "" {
		common.OK(c, gin.H{
			"success": false,
			"message": "Nenhuma API Key configurada. Adicione sua chave nas configurações.",
		})
		return
	}

	client := ai.NewOpenAIClient(h.Cfg.OpenAIBaseURL, cfg.APIKey, cfg.ChatModel, cfg.TranscriptionModel)
	models, err := client.ListModels(c.Request.Context())
	if err != nil {
		msg := "Erro inesperado: " + err.Error()
		switch ai.KindOf(err) {
		case ai.KindAuth:
			msg = "API Key inválida. Verifique sua chave em platform.openai.com/api-keys"
		case ai.KindConnectivity:
			msg = "Não foi possível conectar ao servidor do provedor. Verifique sua conexão."
		case ai.KindRateLimited:
			msg = "Limite de requisições atingido. Aguarde alguns instantes e tente novamente."
		}
		common.OK(c, gin.H{"success": false, "message": msg})
		return
	}

	sample := models
	if len(sample) > 5 {
		sample = sample[:5]
	}
	common.OK(c, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("Conexão estabelecida com sucesso! %d modelos disponíveis.", len(models)),
		"model_tested": strings.Join(sample, ", "),
	})
}
