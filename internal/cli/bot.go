package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/config"
	"telegram-quiz-bot/internal/infra/memory"
	pgloader "telegram-quiz-bot/internal/infra/postgres"
	redisinfra "telegram-quiz-bot/internal/infra/redis"
	opshttp "telegram-quiz-bot/internal/transport/http"
	"telegram-quiz-bot/internal/transport/telegram"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	token := cfg.TelegramToken()
	if token == "" {
		return fmt.Errorf("telegram token not configured (set TELEGRAM_BOT_TOKEN)")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Question source: YAML file by default, Postgres when configured, with a
	// Redis cache in front when both are available.
	var loader app.QuestionLoader = memory.NewFileQuestionLoader(cfg.Quiz.QuestionsPath)
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}
	if redisClient != nil {
		loader = redisinfra.NewQuestionCache(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return fmt.Errorf("loading question bank: %w", err)
	}
	bank, err := app.NewBank(questions, cfg.Quiz.RoundSize)
	if err != nil {
		return fmt.Errorf("validating question bank: %w", err)
	}
	log.Printf("question bank loaded: %d questions, round size %d", bank.Size(), cfg.Quiz.RoundSize)

	var store app.SessionStore
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient)
	} else {
		store = memory.NewSessionStore(cfg.Quiz.StateFile)
	}
	if err := store.Restore(); err != nil {
		log.Printf("restoring sessions: %v", err)
	}

	engine := app.NewEngine(bank, cfg.Quiz.RoundSize, rand.New(rand.NewSource(time.Now().UnixNano())))
	controller := app.NewController(store, engine, cfg.Quiz.LeaderboardSize)

	gateway, err := telegram.NewGateway(token, controller)
	if err != nil {
		return err
	}

	opsServer := &http.Server{
		Addr:              ":" + cfg.Ops.Port,
		Handler:           opshttp.NewMux(controller),
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		log.Printf("ops server listening on :%s", cfg.Ops.Port)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ops server: %v", err)
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if cfg.Telegram.WebhookURL != "" {
			errCh <- gateway.RunWebhook(runCtx, cfg.Telegram.WebhookURL, cfg.Telegram.ListenAddr)
		} else {
			errCh <- gateway.Run(runCtx)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return opsServer.Shutdown(shutdownCtx)
}
