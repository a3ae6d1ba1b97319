package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Inventario-protocolos/internal/application/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-protocolos/internal/interfaces/http"
	"github.com/jhoicas/Inventario-protocolos/pkg/config"
	"github.com/jhoicas/Inventario-protocolos/pkg/logger"
	"github.com/jhoicas/Inventario-protocolos/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// run levanta dependencias y servidor hasta recibir SIGINT/SIGTERM. Los errores se devuelven
// para que los defer (cierre del pool) se ejecuten antes de salir.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			return fmt.Errorf("migraciones: %w", err)
		}
	}

	m := metrics.New("protocolos")

	txRunner := postgres.NewTxRunner(pool)
	protocolRepo := postgres.NewProtocolRepository(pool)
	productRepo := postgres.NewProductRepository(pool)

	ledger := protocol.NewLedger(txRunner, protocolRepo, log, protocol.WithRecorder(m))
	flows := protocol.NewStockFlows(ledger, productRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Protocolos de stock API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
	}

	deps := httpRouter.RouterDeps{
		Ledger:      ledger,
		Flows:       flows,
		Products:    productRepo,
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.App.Name,
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = m.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	httpRouter.Router(app, deps)

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
		return fmt.Errorf("apagado del servidor: %w", err)
	}
	return nil
}
