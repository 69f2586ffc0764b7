package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/sitwell/internal/config"
	"github.com/example/sitwell/internal/database"
	"github.com/example/sitwell/internal/ratelimit"
	"github.com/example/sitwell/internal/routes"
	"github.com/example/sitwell/internal/services"
	"github.com/example/sitwell/internal/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg.Env); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()
	log := utils.GetLogger()

	db := database.Connect(cfg.DatabaseURL)

	limiter, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	if limiter == nil {
		log.Warn("redis not configured, OTP rate limiting disabled")
	}
	defer limiter.Close()

	var sender services.Sender
	if cfg.SMTPHost != "" {
		sender = services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	} else {
		log.Warn("SMTP not configured, emails will be logged instead")
		sender = services.LogSender{}
	}

	app := fiber.New(fiber.Config{
		AppName: "Sitwell Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.Register(app, db, cfg, sender, limiter)

	log.Info("starting server", zap.String("port", cfg.AppPort))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("fiber.Listen error", zap.Error(err))
	}
}
