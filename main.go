package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"loyalty_qa/internal/classifier"
	"loyalty_qa/internal/config"
	"loyalty_qa/internal/history"
	"loyalty_qa/internal/llm"
	"loyalty_qa/internal/logger"
	"loyalty_qa/internal/orchestrator"
	"loyalty_qa/internal/profile"
	"loyalty_qa/internal/prompts"
	"loyalty_qa/internal/retrieval"
	"loyalty_qa/internal/server"
	"loyalty_qa/internal/strategy"
)

func main() {
	ctx := context.Background()

	// .env file is optional
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	env, err := config.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load environment")
	}
	if env.RetrievalEndpoint == "" {
		logger.Fatal().Msg("RETRIEVAL_ENDPOINT environment variable is required")
	}

	// Two models: a small one for intent labelling, the main one for answers.
	classifierModel, err := llm.NewChatModel(ctx, llm.ModelConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      env.LLMAPIKey,
		BaseURL:     env.LLMBaseURL,
		Model:       cfg.LLM.ClassifierModel,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create classifier model")
	}

	answerModel, err := llm.NewChatModel(ctx, llm.ModelConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      env.LLMAPIKey,
		BaseURL:     env.LLMBaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create answer model")
	}

	intentCompleter, err := llm.NewCompleter(ctx, classifierModel, prompts.Intent())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build intent completer")
	}

	registry, err := strategy.NewRegistry(ctx, answerModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build strategy registry")
	}

	var profiles profile.Store
	var health server.HealthChecker
	if env.RedisURL != "" {
		redisStore, err := profile.NewRedisStore(ctx, env.RedisURL, cfg.ProfileTimeout())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect profile store")
		}
		profiles = redisStore
		health = redisStore
	} else {
		logger.Warn().Msg("REDIS_URL not set, using in-memory profile store")
		profiles = profile.NewMemoryStore()
	}

	gateway := retrieval.WithRetry(retrieval.NewHTTPGateway(env.RetrievalEndpoint, cfg.RetrievalTimeout()))

	hist := history.NewStore(history.Config{
		MaxTokens:   cfg.History.MaxTokens,
		TokenBuffer: cfg.History.TokenBuffer,
		MaxUsers:    cfg.History.MaxUsers,
	})

	orch := orchestrator.New(
		classifier.New(intentCompleter),
		registry,
		hist,
		gateway,
		profiles,
		orchestrator.Config{
			TopK:            cfg.Retrieval.TopK,
			ScoreThreshold:  cfg.Retrieval.ScoreThreshold,
			ClassifyTimeout: cfg.LLMTimeout(),
			RetrieveTimeout: cfg.RetrievalTimeout(),
			ProfileTimeout:  cfg.ProfileTimeout(),
			GenerateTimeout: cfg.LLMTimeout(),
		},
	)

	srv := server.New(orch, health)

	logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
