package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitepilot/crm-backend/internal/application"
	"github.com/sitepilot/crm-backend/internal/application/commands"
	"github.com/sitepilot/crm-backend/internal/application/query"
	"github.com/sitepilot/crm-backend/internal/infra/auth"
	ai "github.com/sitepilot/crm-backend/internal/infra/client/openai"
	"github.com/sitepilot/crm-backend/internal/infra/config"
	"github.com/sitepilot/crm-backend/internal/infra/db/repo"
	"github.com/sitepilot/crm-backend/internal/infra/mail"
	"github.com/sitepilot/crm-backend/internal/infra/storage"
	"github.com/sitepilot/crm-backend/internal/infra/worker"
	"github.com/sitepilot/crm-backend/internal/presentation/rest"
	"github.com/sitepilot/crm-backend/internal/presentation/scheduler"
	"github.com/sitepilot/crm-backend/pkg/db"
)

func Init() {
	// DB
	dbConfig := db.NewConfig()
	pool, err := pgxpool.New(context.Background(), dbConfig.GetDSN())
	if err != nil {
		log.Panicf("failed to create pool: %v", err)
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Panicf("failed to connect to db: %v", err)
	}
	uowFactory := db.NewUoWFactory(pool)

	// Configs
	generationConfig := config.NewGenerationConfig()
	paymentConfig := commands.NewPaymentConfig()
	completionConfig := scheduler.NewCompletionConfig()

	// AWS
	cfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	s3 := storage.NewStorage(cfg)

	// Generation worker
	pipelineStore := repo.NewPipelineStore(uowFactory)
	contentClient := ai.NewOpenAIClient(ai.NewOpenAIConfig())
	generator := worker.NewGenerator(pipelineStore, contentClient, s3, generationConfig)

	scanEmpty := query.NewScanEmptyGenerations(uowFactory, s3, generationConfig)
	resetGeneration := commands.NewResetGeneration(uowFactory)

	mailServer := mail.NewMailServer(mail.NewMailConfig())
	notify := commands.NewNotify(mailServer, uowFactory)

	handlers := &application.Handlers{
		CreateOrder:      commands.NewCreateOrder(uowFactory),
		SubmitOnboarding: commands.NewSubmitOnboarding(uowFactory),
		TriggerBuild:     commands.NewTriggerBuild(uowFactory, generator),
		UpdateStatus:     commands.NewUpdateStatus(uowFactory, notify),
		ResetGeneration:  resetGeneration,
		ResetAllEmpty:    commands.NewResetAllEmpty(scanEmpty, resetGeneration),
		Payment:          commands.NewPayment(uowFactory, paymentConfig),
		GetOrder:         query.NewGetOrder(uowFactory),
		ReadLog:          query.NewReadLog(uowFactory),
		GetProgress:      query.NewGetProgress(uowFactory),
		ScanEmpty:        scanEmpty,
	}
	handler := rest.NewServer(handlers)
	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowCredentials: true,
	}))
	rest.RegisterHandlers(app, handler, rest.IdentityMiddleware(auth.IdentityProvider{}))

	completionPoller := scheduler.NewCompletionPoller(uowFactory, completionConfig, notify)
	go completionPoller.Start()

	go func() {
		if err := app.Listen(":8080"); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	completionPoller.Stop()

	fmt.Println("Running cleanup tasks...")

	pool.Close()
	fmt.Println("Fiber was successfully shutdown.")
}
