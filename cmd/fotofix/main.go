package main

import (
	"context"
	"fmt"
	"log"
	"os"
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

	// Find the project root regardless of the binary's working directory
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/fotofix to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	app := fiber.New(fiber.Config{
		// 10 files x 10 MiB plus multipart overhead
		BodyLimit: 115343360,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
