package rest

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/brain-trails/internal/deck"
	infra "github.com/pot-code/brain-trails/internal/infrastructure"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/interfaces/rest/handler"
	"github.com/pot-code/brain-trails/internal/interfaces/rest/middleware"
	"github.com/pot-code/brain-trails/internal/note"
	"github.com/pot-code/brain-trails/internal/planner"
	"github.com/pot-code/brain-trails/internal/quiz"
	"github.com/pot-code/brain-trails/internal/review"
	"github.com/pot-code/brain-trails/internal/stats"
	"github.com/pot-code/brain-trails/internal/user"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// shutdownTimeout grace period for in-flight requests
const shutdownTimeout = 10 * time.Second

// UseCases application services exposed over HTTP
type UseCases struct {
	User    user.UserUseCase
	Deck    deck.DeckUseCase
	Review  review.ReviewUseCase
	Note    note.NoteUseCase
	Quiz    quiz.QuizUseCase
	Planner planner.PlannerUseCase
	Stats   stats.StatsUseCase
}

// NewApp create the echo instance with every route registered
func NewApp(
	conn driver.ITransactionalDB,
	kv driver.KeyValueDB,
	option *infra.AppConfig,
	services *UseCases,
	logger *zap.Logger,
) *echo.Echo {
	var (
		app       = echo.New()
		validator = validate.NewValidator()
		websocket = infra.NewWebsocket(option.CORSOrigins())
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName,
			option.SessionTimeout,
			option.RefreshTimeout)
		jwtMiddleware = middleware.VerifyToken(jwtUtil, &middleware.ValidateTokenOption{
			InBlackList: func(ctx context.Context, token string) (bool, error) {
				return kv.Exists(ctx, token)
			},
		})
		refreshMiddleware = middleware.RefreshToken(jwtUtil, &middleware.RefreshTokenOption{
			Threshold: option.SessionRefresh,
		})
		protected = []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware}
	)
	app.HideBanner = true

	app.Use(echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
		Generator: uuid.RequestID,
	}))
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz")
		},
		UserID: func(c echo.Context) string {
			if claims := jwtUtil.GetContextToken(c); claims != nil {
				return claims.UID
			}
			return ""
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, err error) {
				traceID := c.Response().Header().Get(echo.HeaderXRequestID)
				c.JSON(http.StatusInternalServerError,
					handler.NewRESTStandardError(http.StatusInternalServerError, "Internal server error").
						SetDetail(err.Error()).SetTraceID(traceID),
				)
				logger.Error(err.Error(), zap.String("trace.id", traceID),
					zap.String("url.path", c.Request().RequestURI),
					zap.String("http.request.method", c.Request().Method))
			},
		},
	))
	app.Use(middleware.NoRouteMatched())
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(middleware.CORS(option.CORSOrigins()))
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
	}))

	registerLivenessProbe(app, conn, kv)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}

	var (
		UserHandler    = handler.NewUserHandler(jwtUtil, kv, services.User, validator)
		DeckHandler    = handler.NewDeckHandler(jwtUtil, services.Deck, validator)
		ReviewHandler  = handler.NewReviewHandler(jwtUtil, services.Review)
		NoteHandler    = handler.NewNoteHandler(jwtUtil, services.Note, validator)
		QuizHandler    = handler.NewQuizHandler(jwtUtil, services.Quiz, validator)
		PlannerHandler = handler.NewPlannerHandler(jwtUtil, services.Planner, validator, websocket)
		StatsHandler   = handler.NewStatsHandler(jwtUtil, services.Stats)
	)

	createEndpoint(app,
		&endpoint{
			apiVersion:  "api",
			middlewares: []echo.MiddlewareFunc{middleware.SetTraceLogger(logger)},
			groups: []*apiGroup{
				{
					prefix: "/auth",
					routes: []*route{
						{"POST", "/register", UserHandler.HandleSignUp, nil},
						{"POST", "/login", UserHandler.HandleSignIn, nil},
						{"POST", "/refresh", UserHandler.HandleRefresh, nil},
						{"PUT", "/sign-out", UserHandler.HandleSignOut, nil},
						{"GET", "/exists", UserHandler.HandleUserExists, nil},
						{"GET", "/me", UserHandler.HandleMe, protected},
						{"PUT", "/preferences", UserHandler.HandleUpdatePreferences, protected},
					},
				},
				{
					prefix:      "/profile",
					middlewares: protected,
					routes: []*route{
						{"GET", "", UserHandler.HandleGetProfile, nil},
						{"PUT", "", UserHandler.HandleUpdateProfile, nil},
					},
				},
				{
					prefix:      "/decks",
					middlewares: protected,
					routes: []*route{
						{"GET", "", DeckHandler.HandleListDecks, nil},
						{"POST", "", DeckHandler.HandleCreateDeck, nil},
						{"PUT", "/:id", DeckHandler.HandleRenameDeck, nil},
						{"DELETE", "/:id", DeckHandler.HandleDeleteDeck, nil},
						{"GET", "/:id/flashcards", DeckHandler.HandleListFlashcards, nil},
						{"POST", "/:id/flashcards", DeckHandler.HandleCreateFlashcard, nil},
						{"POST", "/:id/import", DeckHandler.HandleImport, nil},
					},
				},
				{
					prefix:      "/flashcards",
					middlewares: protected,
					routes: []*route{
						{"GET", "/next", ReviewHandler.HandleNextDue, nil},
						{"GET", "/due", ReviewHandler.HandleListDue, nil},
						{"GET", "/due/count", ReviewHandler.HandleDueCount, nil},
						{"PUT", "/:id", DeckHandler.HandleUpdateFlashcard, nil},
						{"PATCH", "/:id", DeckHandler.HandleUpdateFlashcard, nil},
						{"DELETE", "/:id", DeckHandler.HandleDeleteFlashcard, nil},
						{"POST", "/:id/review", ReviewHandler.HandleReview, nil},
					},
				},
				{
					prefix:      "/notes",
					middlewares: protected,
					routes: []*route{
						{"GET", "", NoteHandler.HandleListNotes, nil},
						{"POST", "", NoteHandler.HandleCreateNote, nil},
						{"POST", "/summarize", NoteHandler.HandleSummarize, nil},
						{"GET", "/:id", NoteHandler.HandleGetNote, nil},
						{"PUT", "/:id", NoteHandler.HandleUpdateNote, nil},
						{"PATCH", "/:id", NoteHandler.HandleUpdateNote, nil},
						{"DELETE", "/:id", NoteHandler.HandleDeleteNote, nil},
						{"POST", "/:id/summaries", NoteHandler.HandleSummarizeNote, nil},
					},
				},
				{
					prefix:      "/tags",
					middlewares: protected,
					routes: []*route{
						{"GET", "", NoteHandler.HandleListTags, nil},
					},
				},
				{
					prefix:      "/quizzes",
					middlewares: protected,
					routes: []*route{
						{"GET", "", QuizHandler.HandleListQuizzes, nil},
						{"POST", "/generate", QuizHandler.HandleGenerate, nil},
						{"GET", "/:id", QuizHandler.HandleGetQuiz, nil},
						{"GET", "/:id/questions", QuizHandler.HandleQuestions, nil},
						{"POST", "/:id/attempts", QuizHandler.HandleSubmitAttempt, nil},
						{"DELETE", "/:id", QuizHandler.HandleDeleteQuiz, nil},
					},
				},
				{
					prefix:      "/planner",
					middlewares: protected,
					routes: []*route{
						{"GET", "/sessions", PlannerHandler.HandleListSessions, nil},
						{"POST", "/sessions", PlannerHandler.HandleCreateSession, nil},
						{"PUT", "/sessions/:id", PlannerHandler.HandleUpdateSession, nil},
						{"PATCH", "/sessions/:id", PlannerHandler.HandleUpdateSession, nil},
						{"DELETE", "/sessions/:id", PlannerHandler.HandleDeleteSession, nil},
						{"GET", "/weekly", PlannerHandler.HandleWeekly, nil},
					},
				},
				{
					prefix:      "/stats",
					middlewares: protected,
					routes: []*route{
						{"GET", "/overview", StatsHandler.HandleOverview, nil},
						{"GET", "/study", StatsHandler.HandleStudy, nil},
					},
				},
				{
					prefix:      "/ws",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "/sessions/:id/focus", PlannerHandler.HandleFocus, nil},
					},
				},
			},
		})

	printRoutes(app, logger)
	return app
}

// Serve run the http transport server until ctx is done, then shut down gracefully
func Serve(ctx context.Context, app *echo.Echo, option *infra.AppConfig, logger *zap.Logger) error {
	addr := fmt.Sprintf("%s:%d", option.Host, option.Port)
	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("server.address", addr))
		errc <- app.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Debug("Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, db driver.ITransactionalDB, kv driver.KeyValueDB) {
	app.GET("/healthz", func(c echo.Context) error {
		if db.Ping() == nil && kv.Ping() == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}
