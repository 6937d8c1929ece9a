package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	mongostore "classroom-quiz-service/internal/infra/mongo"
	pgstore "classroom-quiz-service/internal/infra/postgres"
	redisstore "classroom-quiz-service/internal/infra/redis"
	transport "classroom-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type backends struct {
	redis    *redis.Client
	pool     *pgxpool.Pool
	mongo    *mongo.Client
	mongoDB  string
	redisTTL time.Duration
}

func (b backends) close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
	if b.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.mongo.Disconnect(ctx)
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if b.pool != nil {
		loader = pgstore.NewQuestionLoader(b.pool, cfg.Quiz.Limit)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionLoader
	if b.redis != nil {
		questions = redisstore.NewQuestionCache(b.redis, loader, quizTTL)
	} else {
		questions = memory.NewCachedQuestionLoader(loader, quizTTL)
	}

	scores, err := newScoreStore(ctx, cfg.Scores.Driver, b)
	if err != nil {
		return err
	}

	var registry app.SessionRegistry = memory.NewSessionRegistry()
	if b.redis != nil {
		shared := redisstore.NewSessionRegistry(b.redis, b.redisTTL)
		closeInterruptedSession(ctx, shared, time.Now())
		registry = shared
	}

	hub := transport.NewHub(cfg.Server.ClientQueue)
	service := app.NewGameService(questions, scores, hub, gameSettings(cfg.Game))
	service.SetSessionRegistry(registry)
	service.SetParticipantCounter(hub.Participants)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, hub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	service.Reset(shutdownCtx)
	return server.Shutdown(shutdownCtx)
}

func connectBackends(ctx context.Context, cfg config.Config) (backends, error) {
	b := backends{
		mongoDB:  cfg.Mongo.Database,
		redisTTL: config.TTLDuration(cfg.Redis.TTL, 24*time.Hour),
	}
	if b.mongoDB == "" {
		b.mongoDB = "classroom_quiz"
	}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return b, err
		}
		b.pool = pool
	}

	if cfg.Mongo.URI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			b.close()
			return b, fmt.Errorf("connect mongo: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(ctx)
			b.close()
			return b, fmt.Errorf("ping mongo: %w", err)
		}
		b.mongo = client
	}
	return b, nil
}

type activeSessions interface {
	Active(ctx context.Context) (string, bool)
	Finished(ctx context.Context, sessionID, status string, at time.Time) error
}

// closeInterruptedSession marks a session left running by a previous process as reset.
func closeInterruptedSession(ctx context.Context, r activeSessions, now time.Time) {
	id, ok := r.Active(ctx)
	if !ok {
		return
	}
	if err := r.Finished(ctx, id, domain.SessionStatusReset, now); err != nil {
		log.Printf("close interrupted session %s: %v", id, err)
		return
	}
	log.Printf("closed interrupted session %s", id)
}

// newScoreStore picks the score backend. An empty driver prefers Postgres
// when configured and falls back to memory.
func newScoreStore(ctx context.Context, driver string, b backends) (app.ScoreStore, error) {
	if driver == "" {
		driver = "memory"
		if b.pool != nil {
			driver = "postgres"
		}
	}
	log.Printf("score store: %s", driver)

	switch driver {
	case "memory":
		return memory.NewScoreStore(), nil
	case "redis":
		if b.redis == nil {
			return nil, fmt.Errorf("scores.driver redis requires redis.addr")
		}
		return redisstore.NewScoreStore(b.redis, b.redisTTL), nil
	case "postgres":
		if b.pool == nil {
			return nil, fmt.Errorf("scores.driver postgres requires postgres.url")
		}
		return pgstore.NewScoreStore(b.pool), nil
	case "mongo":
		if b.mongo == nil {
			return nil, fmt.Errorf("scores.driver mongo requires mongo.uri")
		}
		store := mongostore.NewScoreStore(b.mongo, b.mongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown scores.driver %q", driver)
}

// gameSettings overlays configured values on the defaults.
func gameSettings(g config.Game) app.Settings {
	s := app.DefaultSettings()
	s.QuestionDuration = config.TTLDuration(g.QuestionDuration, s.QuestionDuration)
	s.GraceDelay = config.TTLDuration(g.GraceDelay, s.GraceDelay)
	s.LeadIn = config.TTLDuration(g.LeadIn, s.LeadIn)
	s.BonusWindow = config.TTLDuration(g.BonusWindow, s.BonusWindow)
	s.StoreTimeout = config.TTLDuration(g.StoreTimeout, s.StoreTimeout)
	if g.BasePoints > 0 {
		s.BasePoints = g.BasePoints
	}
	if g.BonusPoints != nil && *g.BonusPoints >= 0 {
		s.BonusPoints = *g.BonusPoints
	}
	if g.LeaderboardLimit > 0 {
		s.LeaderboardLimit = g.LeaderboardLimit
	}
	if g.ResultsLimit > 0 {
		s.ResultsLimit = g.ResultsLimit
	}
	s.AdvanceWhenAllAnswered = g.AdvanceWhenAllAnswered
	return s
}
