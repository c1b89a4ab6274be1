package controllers

import (
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/StefanBrandt/FotoFix/internal/pkg/database"
	"github.com/StefanBrandt/FotoFix/internal/pkg/enhancer"
	"github.com/StefanBrandt/FotoFix/internal/pkg/entitlements"
	"github.com/StefanBrandt/FotoFix/internal/pkg/payment"
	"github.com/StefanBrandt/FotoFix/internal/pkg/s3mirror"
	"github.com/StefanBrandt/FotoFix/internal/pkg/storage"
)

var (
	apiOrchestrator   *enhancer.Orchestrator
	apiPool           *enhancer.Pool
	checkoutManager   *payment.CheckoutSessionManager
	paymentReconciler *payment.Reconciler
	deliveryGate      *entitlements.DeliveryGate
)

// InitializeAPIControllers wires the controller singletons. Called once from
// the router after database, cache and storage are up.
func InitializeAPIControllers() {
	db := database.GetDB()
	store := storage.GetStore()

	apiOrchestrator = enhancer.NewOrchestrator(db, store, enhancer.NewGeminiClientFromEnv())
	if cfg, err := s3mirror.LoadConfig(); err != nil {
		fiberlog.Warnf("[Setup] S3 mirror disabled: %v", err)
	} else if cfg.IsEnabled() {
		mirror, err := s3mirror.NewClient(cfg)
		if err != nil {
			fiberlog.Warnf("[Setup] S3 mirror disabled: %v", err)
		} else {
			apiOrchestrator.WithMirror(mirror)
		}
	}
	apiPool = enhancer.SetupPool(apiOrchestrator)

	stripe := payment.NewStripeClientFromEnv()
	checkoutManager = payment.NewCheckoutSessionManager(db, stripe)
	paymentReconciler = payment.NewReconciler(db, stripe)
	deliveryGate = entitlements.NewDeliveryGate(db)
}
