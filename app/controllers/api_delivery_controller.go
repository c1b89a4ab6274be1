package controllers

import (
	"errors"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/internal/pkg/enhancer"
	"github.com/StefanBrandt/FotoFix/internal/pkg/entitlements"
	"github.com/StefanBrandt/FotoFix/internal/pkg/metrics/counter"
)

// HandlePreview serves the free 600px preview of a ready enhancement.
// A preview lost on disk is rebuilt from the enhanced artifact on demand.
func HandlePreview(c *fiber.Ctx) error {
	displayID := c.Params("id")
	if displayID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id missing"})
	}

	job, err := deliveryGate.CanPreview(displayID)
	if err != nil {
		return deliveryError(c, displayID, err)
	}

	previewPath, err := apiOrchestrator.EnsurePreview(job)
	if err != nil {
		fiberlog.Errorf("[Delivery] Preview for %s unavailable: %v", displayID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "preview unavailable"})
	}

	if err := counter.AddPreviewView(job.ID); err != nil {
		fiberlog.Warnf("[Delivery] Counting preview view for %s failed: %v", displayID, err)
	}
	return c.SendFile(previewPath)
}

// HandleDownload serves the full resolution enhanced file. Requires a paid
// entitlement for exactly this generation; 402 otherwise.
func HandleDownload(c *fiber.Ctx) error {
	displayID := c.Params("id")
	if displayID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id missing"})
	}

	job, err := deliveryGate.CanDownload(displayID)
	if err != nil {
		return deliveryError(c, displayID, err)
	}

	if err := counter.AddDownload(job.ID); err != nil {
		fiberlog.Warnf("[Delivery] Counting download for %s failed: %v", displayID, err)
	}

	filename := "enhanced_" + displayID + filepath.Ext(job.EnhancedPath)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.SendFile(job.EnhancedPath)
}

func deliveryError(c *fiber.Ctx, displayID string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	case errors.Is(err, entitlements.ErrNotReady):
		status, _ := enhancer.ResolveJobStatus(displayID)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "enhancement is not ready",
			"status": status,
		})
	case errors.Is(err, entitlements.ErrNotPaid):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "payment required"})
	default:
		fiberlog.Errorf("[Delivery] Gate check for %s failed: %v", displayID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delivery check failed"})
	}
}
