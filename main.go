package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gastoro/backend/internal/cache"
	"github.com/gastoro/backend/internal/keyvalue"
	"github.com/gastoro/backend/internal/remote/sqlitestore"
	"github.com/gastoro/backend/internal/router"
	"github.com/gastoro/backend/internal/scan"
)

func main() {
	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	// Create data directory
	dataDir := filepath.Join(".", "data")
	err := os.MkdirAll(dataDir, os.ModePerm)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// Connect to the remote store
	dsn, ok := os.LookupEnv("GASTORO_DB")
	if !ok {
		dsn = "data/gastoro.db"
	}
	store, err := sqlitestore.Connect(dsn)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer store.Close()

	// Open the device key-value storage the caches persist to
	persistence, err := keyvalue.Open("data/cache.db")
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer persistence.Close()

	reference := cache.NewReference(store, persistence)
	expenses := cache.NewExpense(store, persistence)

	ctx := context.Background()
	reference.Initialize(ctx)
	expenses.Initialize(ctx, reference.Scope())

	ocrBaseURL, ok := os.LookupEnv("OCR_BASE_URL")
	if !ok {
		ocrBaseURL = "http://localhost:8001"
	}
	reconciler := scan.NewReconciler(scan.NewClient(ocrBaseURL), expenses, reference)

	r, err := router.Config()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	router.AttachRoutes(router.API{
		Reference:  reference,
		Expenses:   expenses,
		Store:      store,
		Reconciler: reconciler,
	}, r.Group("/"))

	if err := r.Run(); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
