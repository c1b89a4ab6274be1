package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/database"
	"github.com/StefanBrandt/FotoFix/internal/pkg/enhancer"
)

// HandleJobStatus reports the pipeline state of one enhancement job.
// Response: { id, status, enhanced_via?, has_preview, failure_reason? }
func HandleJobStatus(c *fiber.Ctx) error {
	displayID := c.Params("id")
	if displayID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id missing"})
	}

	status, err := enhancer.ResolveJobStatus(displayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
		}
		fiberlog.Errorf("[Status] Resolving %s failed: %v", displayID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not resolve status"})
	}

	response := fiber.Map{
		"id":     displayID,
		"status": status,
	}

	// Terminal states carry details only the DB has.
	if status == models.JobStatusReady || status == models.JobStatusFailed {
		if job, err := models.FindJobByDisplayID(database.GetDB(), displayID); err == nil {
			response["has_preview"] = job.HasPreview
			if job.EnhancedVia != "" {
				response["enhanced_via"] = job.EnhancedVia
			}
			if job.FailureReason != "" {
				response["failure_reason"] = job.FailureReason
			}
		}
	}

	return c.JSON(response)
}

type redoRequest struct {
	CustomInstructions string `json:"custom_instructions" validate:"max=2000"`
}

func (r *redoRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// HandleRedo starts the next generation for an image. The prior generation
// and its entitlement, if any, stay untouched.
// Response: 202 { id, status, generation }
func HandleRedo(c *fiber.Ctx) error {
	displayID := c.Params("id")
	if displayID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id missing"})
	}

	var req redoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	job, err := apiOrchestrator.Redo(displayID, req.CustomInstructions)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
		}
		fiberlog.Errorf("[Redo] Creating redo for %s failed: %v", displayID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not start redo"})
	}
	apiPool.Enqueue(job)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id":         job.DisplayID,
		"status":     job.Status,
		"generation": job.Generation,
	})
}

// HandleEnhancementOptions lists the selectable enhancement options per photo
// type, plus the defaults applied when a client sends none.
func HandleEnhancementOptions(c *fiber.Ctx) error {
	photoType := strings.TrimSpace(c.Query("photo_type"))
	if photoType != "" && photoType != enhancer.PhotoTypeInterior && photoType != enhancer.PhotoTypeExterior {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo_type must be interior or exterior"})
	}

	if photoType != "" {
		return c.JSON(fiber.Map{
			"photo_type": photoType,
			"options":    enhancer.EnhancementOptions[photoType],
			"defaults":   enhancer.DefaultOptions(photoType),
		})
	}

	return c.JSON(fiber.Map{
		"options": enhancer.EnhancementOptions,
		"defaults": fiber.Map{
			enhancer.PhotoTypeInterior: enhancer.DefaultOptions(enhancer.PhotoTypeInterior),
			enhancer.PhotoTypeExterior: enhancer.DefaultOptions(enhancer.PhotoTypeExterior),
		},
	})
}
