package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/database"
	"github.com/example/referdby/internal/routes"
	"github.com/example/referdby/internal/services"
)

func main() {
	cfg := config.Load()

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}
	log.SetOutput(out)

	db := database.Connect(cfg.DatabaseURL, !cfg.IsProduction())
	services.Metrics()

	deps, err := routes.NewDependencies(context.Background(), db, cfg)
	if err != nil {
		log.Fatalf("failed to build services: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "ReferdBy Settlement",
		BodyLimit: 12 << 20,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: out}))

	routes.Register(app, db, cfg, deps)

	if cfg.Rates.APIKey != "" {
		if _, err := deps.Currency.Refresh(context.Background()); err != nil {
			log.Printf("Exchange rate warm-up failed: %v", err)
		}
	}

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
