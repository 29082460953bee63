package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/failsight/backend/internal/queue"
	mid "github.com/failsight/backend/internal/server/middleware"
	"github.com/failsight/backend/internal/storage"
	"github.com/failsight/backend/internal/util"
	"github.com/failsight/backend/pkg/intel"
	"github.com/failsight/backend/pkg/logger"
	pgxstore "github.com/failsight/backend/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	jwksUrl := util.GetEnv("AUTH_URL") + "/jwks"
	k, err := keyfunc.NewDefault([]string{jwksUrl})
	if err != nil {
		logger.Fatal("Failed to load jwks keys", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	registry, err := intel.LoadRegistry(util.GetEnvString("QUERY_CONFIG_DIR", "config/queries"))
	if err != nil {
		logger.Fatal("Failed to load query definitions", "err", err)
	}
	logger.Info("Loaded query definitions", "count", registry.Len())

	engine, err := intel.NewEngine(intel.NewEngineParams{
		Registry:     registry,
		Store:        pgxstore.NewPatternStore(conn),
		Workers:      int(util.GetEnvNumeric("SEARCH_WORKERS", 4)),
		QueryTimeout: time.Duration(util.GetEnvNumeric("SEARCH_QUERY_TIMEOUT_MS", 5000)) * time.Millisecond,
		ResultCap:    int(util.GetEnvNumeric("SEARCH_RESULT_CAP", 100)),
	})
	if err != nil {
		logger.Fatal("Failed to create search engine", "err", err)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	queue.SetupQueues(ch, []string{queue.ReportQueue})

	s3 := storage.NewS3Client(ctx)

	masterAPIKey := util.GetEnv("MASTER_API_KEY")
	masterUserID, _ := strconv.ParseInt(util.GetEnv("MASTER_USER_ID"), 10, 64)
	masterUserRole := util.GetEnv("MASTER_USER_ROLE")

	e.Use(mid.AppContextMiddleware(&mid.App{
		DBConn:         conn,
		Queue:          ch,
		Key:            &k,
		S3:             s3,
		Engine:         engine,
		MasterAPIKey:   masterAPIKey,
		MasterUserID:   masterUserID,
		MasterUserRole: masterUserRole,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
