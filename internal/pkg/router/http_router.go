package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/StefanBrandt/FotoFix/app/controllers"
	"github.com/StefanBrandt/FotoFix/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Wire controller singletons (pipeline, checkout, delivery gate)
	controllers.InitializeAPIControllers()
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
