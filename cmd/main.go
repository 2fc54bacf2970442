package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pot-code/brain-trails/internal/deck"
	infra "github.com/pot-code/brain-trails/internal/infrastructure"
	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/pot-code/brain-trails/internal/interfaces/rest"
	"github.com/pot-code/brain-trails/internal/jobs"
	"github.com/pot-code/brain-trails/internal/note"
	"github.com/pot-code/brain-trails/internal/planner"
	"github.com/pot-code/brain-trails/internal/quiz"
	"github.com/pot-code/brain-trails/internal/review"
	"github.com/pot-code/brain-trails/internal/stats"
	"github.com/pot-code/brain-trails/internal/textgen"
	"github.com/pot-code/brain-trails/internal/user"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(
		zap.String("service.id", option.AppID),
	)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
		File:     option.Database.File,
	})
	if err != nil {
		logger.Fatal("Failed to create DB connection", zap.Error(err))
	}
	defer dbConn.Close(context.Background())
	logger.Debug("Create DB connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)
	if err := driver.EnsureSchema(logging.SetLoggerInContext(ctx, logger), dbConn); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	var kv driver.KeyValueDB
	if option.KVStore.Host != "" {
		rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
		if err := rdb.Ping(); err != nil {
			logger.Fatal("Failed to connect KV store", zap.Error(err))
		}
		defer rdb.Close()
		kv = rdb
	} else {
		logger.Warn("kv.host is empty, token blacklist and caches are kept in memory")
		kv = driver.NewMemoryKV()
	}

	generator := textgen.New(&textgen.Config{
		Provider:      option.AI.Provider,
		BaseURL:       option.AI.BaseURL,
		APIKey:        option.AI.APIKey,
		Model:         option.AI.Model,
		MaxInputChars: option.AI.MaxInputChars,
		Timeout:       option.AI.Timeout,
		MaxRetries:    option.AI.MaxRetries,
		Fallback:      option.AI.Fallback,
	}, logger)

	UUIDGenerator := uuid.NewNanoIDGenerator(option.Security.IDLength)
	UserRepo := user.NewUserRepository(dbConn, UUIDGenerator)
	UserUseCase := user.NewUserUseCase(UserRepo, option.Security.MaxLoginAttempts, option.Security.RetryTimeout)

	DeckRepo := deck.NewDeckRepository(dbConn, UUIDGenerator)
	DeckUseCase := deck.NewDeckUseCase(DeckRepo, review.NewDueCountCache(kv, option.Review.RefreshInterval))

	ProgressRepo := review.NewProgressRepository(dbConn, UUIDGenerator)
	ReviewUseCase := review.NewReviewUseCase(ProgressRepo, DeckUseCase, kv, option.Review.DueLimit, option.Review.RefreshInterval)

	NoteRepo := note.NewNoteRepository(dbConn, UUIDGenerator)
	NoteUseCase := note.NewNoteUseCase(NoteRepo, generator)

	QuizRepo := quiz.NewQuizRepository(dbConn, UUIDGenerator)
	QuizUseCase := quiz.NewQuizUseCase(QuizRepo, generator)

	SessionRepo := planner.NewSessionRepository(dbConn, UUIDGenerator)
	PlannerUseCase := planner.NewPlannerUseCase(SessionRepo, option.Planner.StaleAfter)

	StatsRepo := stats.NewStatsRepository(dbConn)
	StatsUseCase := stats.NewStatsUseCase(StatsRepo, ProgressRepo, SessionRepo)

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.Register("planner.stale_sessions", option.Planner.SweepInterval,
		jobs.StaleSessionSweeper(PlannerUseCase.CloseStale)); err != nil {
		logger.Fatal("Failed to register job", zap.Error(err))
	}
	if err := scheduler.Register("review.due_counts", option.Review.RefreshInterval,
		ReviewUseCase.RefreshDueCounts); err != nil {
		logger.Fatal("Failed to register job", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := rest.NewApp(dbConn, kv, option, &rest.UseCases{
		User:    UserUseCase,
		Deck:    DeckUseCase,
		Review:  ReviewUseCase,
		Note:    NoteUseCase,
		Quiz:    QuizUseCase,
		Planner: PlannerUseCase,
		Stats:   StatsUseCase,
	}, logger)
	if err := rest.Serve(ctx, app, option, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
