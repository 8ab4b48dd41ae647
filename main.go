package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rpupo63/blog-publisher-backend/api"
	"github.com/rpupo63/blog-publisher-backend/config"
	"github.com/rpupo63/blog-publisher-backend/database"
	"github.com/rpupo63/blog-publisher-backend/models"
	"github.com/rpupo63/blog-publisher-backend/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)
	log.Info().Msg("Initializing app...")

	ctx := context.Background()
	c = withParameterStore(ctx, c)

	endpoints, err := database.ParseEndpoints(config.GetStrings(c, "DB_ENDPOINTS"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid DB_ENDPOINTS")
	}

	table := config.GetString(c, "ARTICLES_TABLE", models.DefaultArticlesTable)
	autoMigrate := config.GetBool(c, "AUTO_MIGRATE", false)
	generateModels := config.GetBool(c, "GENERATE_MODELS", false)
	columnReport := config.GetBool(c, "GENERATE_COLUMN_REPORT", false)

	gormLog := log.With().Str("component", "gorm").Logger()
	newLogger := logger.New(
		&gormLog,
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, endpoint, err := database.Connect(ctx, endpoints, database.ConnectOptions{
		Database:       config.GetString(c, "DB_NAME", "postgres"),
		User:           config.GetString(c, "DB_USER", "postgres"),
		Password:       config.GetString(c, "DB_PASSWORD", ""),
		SSLMode:        config.GetString(c, "DB_SSLMODE", "require"),
		ConnectTimeout: config.GetSeconds(c, "DB_CONNECT_TIMEOUT_SECONDS", 10),
		Table:          table,
		RequireTable:   !autoMigrate && !generateModels,
		Replicas:       config.GetStrings(c, "DB_REPLICA_DSNS"),
		GormConfig: &gorm.Config{
			PrepareStmt: false,
			Logger:      newLogger,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	currentDB := database.New(db, table, endpoint)
	defer currentDB.Close()

	// If generating models, run generation and exit
	if generateModels {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db, table, config.GetString(c, "GENERATE_OUT_PATH", "./query")); err != nil {
			log.Fatal().Err(err).Msg("Model generation failed")
		}
		return
	}

	// If generating column mismatch report, run report and exit
	if columnReport {
		report, err := models.BuildColumnReport(db, table)
		if err != nil {
			log.Fatal().Err(err).Msg("Column report failed")
		}
		models.LogColumnReport(report)
		return
	}

	if autoMigrate {
		if err := currentDB.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("Migration failed")
		}
		log.Info().Str("table", table).Msg("Articles table migrated")
	}

	deps := api.Dependencies{
		Publisher:        services.NewPublisher(currentDB.ArticleRepo()),
		Articles:         currentDB.ArticleRepo(),
		Database:         currentDB.ArticleRepo(),
		DatabaseEndpoint: currentDB.Endpoint().Name,
	}
	if images := newImageStore(ctx, c); images != nil {
		deps.Images = images
	}

	// Start and listenToInterrupt may both send; neither must block after shutdown.
	errChannel := make(chan error, 2)

	server, err := api.NewServer(c, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

func setupLogging(c map[string]string) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(config.GetString(c, "LOG_FORMAT", ""), "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// withParameterStore merges SSM parameters under SSM_PARAMETER_PREFIX into c.
func withParameterStore(ctx context.Context, c map[string]string) map[string]string {
	prefix := config.GetString(c, "SSM_PARAMETER_PREFIX", "")
	if prefix == "" {
		return c
	}

	client, err := config.NewSSMClient(ctx, config.GetString(c, "AWS_REGION", "us-east-1"))
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to create SSM client")
	}
	params, err := config.LoadParameters(ctx, client, prefix)
	if err != nil {
		log.Fatal().Err(err).Str("prefix", prefix).Msg("Unable to load parameters")
	}
	return config.Merge(c, params)
}

// newImageStore returns nil when object storage is not configured.
func newImageStore(ctx context.Context, c map[string]string) *services.ImageStore {
	cfg := services.ImageStoreConfig{
		Endpoint:        config.GetString(c, "B2_ENDPOINT", ""),
		Region:          config.GetString(c, "B2_REGION", "us-east-005"),
		Bucket:          config.GetString(c, "B2_BUCKET", ""),
		AccessKeyID:     config.GetString(c, "B2_ACCESS_KEY_ID", ""),
		SecretAccessKey: config.GetString(c, "B2_SECRET_ACCESS_KEY", ""),
		PublicBaseURL:   config.GetString(c, "IMAGE_PUBLIC_BASE_URL", ""),
	}
	if cfg.Bucket == "" || cfg.AccessKeyID == "" {
		log.Warn().Msg("Object storage not configured, image uploads disabled")
		return nil
	}

	client, err := services.NewS3Client(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to create object storage client")
	}
	store, err := services.NewImageStore(client, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid object storage configuration")
	}
	return store
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
