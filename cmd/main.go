package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"editais-platform/internal/ai"
	"editais-platform/internal/chat"
	"editais-platform/internal/config"
	"editais-platform/internal/extractor"
	"editais-platform/internal/fetcher"
	"editais-platform/internal/jobs"
	"editais-platform/internal/logger"
	"editais-platform/internal/pdftext"
	"editais-platform/internal/scrapers"
	"editais-platform/internal/store"
	"editais-platform/internal/telemetry"
	"editais-platform/internal/vectorstore"
	"editais-platform/middleware"
	"editais-platform/routes"
	"editais-platform/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("editais-platform", cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("Tracer initialization failed", "error", err)
	} else {
		defer shutdownTracer()
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	// Stores
	editalStore := store.NewEditalStore(db)
	jobStore := store.NewJobStore(db)
	conversationStore := store.NewConversationStore(db)
	userStore := store.NewUserStore(db)

	// OpenAI client and vector index
	aiClient := ai.NewClient(cfg)

	chromaClient := vectorstore.NewChromaClient(cfg.ChromaHost, cfg.ChromaPort)
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 60*time.Second)
	index, err := vectorstore.NewIndex(indexCtx, chromaClient, aiClient, cfg.ChromaCollection)
	cancelIndex()
	if err != nil {
		log.Fatal("Failed to initialize vector store:", err)
	}

	// Ingestion pipeline
	httpFetcher := fetcher.New()
	pdfPool := pdftext.NewPool(cfg.JobMaxWorkers)
	docExtractor := extractor.New(aiClient, editalStore, index, cfg.PDFChunkSize, cfg.ChunkDelayMs)

	registry := scrapers.NewRegistry()
	registry.Register(scrapers.NewCNPq(httpFetcher))
	registry.Register(scrapers.NewCNPqAI(httpFetcher, aiClient))
	registry.Register(scrapers.NewFAPESQ(httpFetcher))
	registry.Register(scrapers.NewParaiba(httpFetcher))
	registry.Register(scrapers.NewCONFAP(httpFetcher))
	registry.Register(scrapers.NewCAPES(httpFetcher))
	registry.Register(scrapers.NewFINEP(httpFetcher))

	runner := jobs.NewRunner(registry, httpFetcher, pdfPool, docExtractor, editalStore, jobStore, cfg.PDFProcessDelayMs)

	scheduler := jobs.NewScheduler(runner)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer scheduler.Stop()

	chatService := chat.NewService(aiClient, index, conversationStore,
		cfg.ChatTemperature, cfg.ChatTopKChunks, cfg.ChatMaxContextLength, cfg.ChatDistanceThreshold)
	exportService := services.NewExportService(editalStore)

	// HTTP surface
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	routes.SetupAuthRoutes(router, cfg, userStore, authMiddleware)
	routes.SetupJobRoutes(router, authMiddleware, runner, jobStore)
	routes.SetupChatRoutes(router, authMiddleware, chatService)
	routes.SetupChromaRoutes(router, authMiddleware, index)
	routes.SetupEditalRoutes(router, authMiddleware, editalStore, exportService)

	srv := &http.Server{
		Addr:    cfg.APIHost + ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
