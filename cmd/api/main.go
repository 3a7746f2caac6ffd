package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/lotes-remision/docs"
	appcount "github.com/jhoicas/lotes-remision/internal/application/count"
	"github.com/jhoicas/lotes-remision/internal/application/ports"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/application/scan"
	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
	"github.com/jhoicas/lotes-remision/internal/application/usecase"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/barcode"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/excel"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/memory"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/lotes-remision/internal/infrastructure/pdf"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/postgres"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/rabbitmq"
	httpRouter "github.com/jhoicas/lotes-remision/internal/interfaces/http"
	"github.com/jhoicas/lotes-remision/pkg/config"
	"github.com/jhoicas/lotes-remision/pkg/logger"
)

// @title       Lotes y Remisiones API
// @version     1.0
// @description Inventario por lotes (FEFO), carrito de remisión con firmas y conteo por escáner.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	shipmentRepo := postgres.NewShipmentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Conteos en memoria solo sirven con una instancia; con varias se usa PostgreSQL.
	var tallyStore repository.TallyStore
	switch cfg.Count.TallyStore {
	case config.TallyStorePostgres:
		tallyStore = postgres.NewTallyStore(pool)
	default:
		tallyStore = memory.NewTallyStore()
	}

	bootLog := log.Component("bootstrap")
	bootLog.Info().Str("tally_store", cfg.Count.TallyStore).Msg("almacén de conteos")

	// Eventos: sin RABBITMQ_URL se descartan.
	var events ports.EventPublisher = ports.NopPublisher{}
	var broker *rabbitmq.Client
	if cfg.RabbitMQ.Enabled() {
		broker = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQ.URL,
			Exchange: cfg.RabbitMQ.Exchange,
		}, log.Zerolog())
		if err := broker.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		events = rabbitmq.NewPublisher(broker, log.Zerolog())
	} else {
		bootLog.Warn().Msg("RABBITMQ_URL vacío: eventos de dominio desactivados")
	}

	recorder := metrics.NewRecorder(cfg.Metrics.Prefix)
	zl := log.Zerolog()

	productUC := usecase.NewProductUseCase(productRepo, zl)
	lotUC := usecase.NewLotUseCase(txRunner, productRepo, lotRepo, zl)
	spreadsheetUC := spreadsheet.NewUseCase(excel.NewWorkbook(), txRunner, productRepo, zl)
	cartUC := remision.NewCartUseCase(
		txRunner, productRepo, lotRepo, cartRepo, shipmentRepo,
		events, recorder, zl, cfg.Shipment.MaxUnsigned,
	)
	// PDF: remisión con firmas de entrega y recibido
	shipmentUC := remision.NewShipmentUseCase(shipmentRepo, infrapdf.NewMarotoPDFGenerator(), events, zl)
	scanUC := scan.NewUseCase(barcode.NewDecoder(), txRunner, zl)
	countUC := appcount.NewUseCase(tallyStore, lotRepo, txRunner, events, recorder, zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB << 20,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Lotes y Remisiones API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:     productUC,
		LotUC:         lotUC,
		SpreadsheetUC: spreadsheetUC,
		CartUC:        cartUC,
		ShipmentUC:    shipmentUC,
		ScanUC:        scanUC,
		CountUC:       countUC,
		Metrics:       recorder,
		AppName:       cfg.App.Name,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Error().Err(err).Msg("cierre de RabbitMQ")
		}
	}

	log.Info().Msg("aplicación detenida")
}
