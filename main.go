package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/StefanBrandt/FotoFix/internal/pkg/cache"
	"github.com/StefanBrandt/FotoFix/internal/pkg/database"
	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
	"github.com/StefanBrandt/FotoFix/internal/pkg/metrics/counter"
	"github.com/StefanBrandt/FotoFix/internal/pkg/router"
	"github.com/StefanBrandt/FotoFix/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	storage.SetupStorage()

	counter.StartFlusher(context.Background(), 5*time.Minute)

	app := fiber.New(fiber.Config{
		// 10 files x 10 MiB plus multipart overhead
		BodyLimit: 115343360,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
