package handlers

import (
	"context"

	"gorm.io/gorm"

	"github.com/lucashml/medscribe/internal/ai"
	"github.com/lucashml/medscribe/internal/bi"
	"github.com/lucashml/medscribe/internal/clinical"
	"github.com/lucashml/medscribe/internal/config"
	"github.com/lucashml/medscribe/internal/consultation"
	"github.com/lucashml/medscribe/internal/documents"
	"github.com/lucashml/medscribe/internal/llmconfig"
	"github.com/lucashml/medscribe/internal/store/rabbitmq"
	"github.com/lucashml/medscribe/internal/store/redisstore"
	"github.com/lucashml/medscribe/internal/transcription"
)

type Handler struct {
	DB  *gorm.DB
	Cfg config.Config
	LLM *llmconfig.Service

	ConsultSvc       *consultation.Service
	TranscriptionSvc *transcription.Service
	BISvc            *bi.Service
	DocGen           *documents.LLMGenerator

	// Chat is the resolved text-generation provider for the copilot
	// endpoints; it re-reads the runtime settings on every call.
	Chat *ai.Resolved

	// Rabbit is nil when the async analyze path is disabled.
	Rabbit *rabbitmq.Publisher
}

// NewHandler wires the pipeline services on top of the shared DB handle.
func NewHandler(gdb *gorm.DB, cfg config.Config, llm *llmconfig.Service, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	reg := ai.NewRegistry()
	RegisterProviders(reg, cfg)

	chat := &ai.Resolved{
		Resolve: func(ctx context.Context) (ai.ChatProvider, error) {
			c := llm.Get()
			return reg.Get(ctx, c.Provider, c.APIKey, c.ChatModel)
		},
	}

	repo := consultation.NewRepo(gdb)
	engine := clinical.NewLLMEngine(chat)
	gen := documents.NewLLMGenerator(chat)

	return &Handler{
		DB:               gdb,
		Cfg:              cfg,
		LLM:              llm,
		ConsultSvc:       consultation.NewService(repo, engine, gen),
		TranscriptionSvc: transcription.NewService(llm, cfg.OpenAIBaseURL),
		BISvc:            bi.NewService(gdb, rds),
		DocGen:           gen,
		Chat:             chat,
		Rabbit:           rabbit,
	}
}

// RegisterProviders installs the chat provider factories routed by the
// provider name in the runtime settings.
func RegisterProviders(reg *ai.Registry, cfg config.Config) {
	reg.Register("openai", func(ctx context.Context, apiKey, model string) (ai.ChatProvider, error) {
		_ = ctx
		return ai.NewOpenAIClient(cfg.OpenAIBaseURL, apiKey, model, ""), nil
	})
	reg.Register("openrouter", func(ctx context.Context, apiKey, model string) (ai.ChatProvider, error) {
		_ = ctx
		return ai.NewOpenRouterClient(cfg.OpenRouterBaseURL, apiKey, model), nil
	})
}
