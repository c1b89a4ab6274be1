package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/StefanBrandt/FotoFix/app/models"
	"github.com/StefanBrandt/FotoFix/internal/pkg/database"
	"github.com/StefanBrandt/FotoFix/internal/pkg/enhancer"
	"github.com/StefanBrandt/FotoFix/internal/pkg/storage"
	"github.com/StefanBrandt/FotoFix/internal/pkg/upload"
)

type uploadedImageResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	PhotoType    string `json:"photo_type"`
	Status       string `json:"status"`
}

// HandleUploadPhotos ingests a batch of photos and starts generation zero of
// the enhancement pipeline for each. Per-file validation failures reject the
// whole batch before anything is persisted.
//
// Request: multipart form, field "images" (up to 10 files), optional fields
// "photo_type", "options" (repeatable) and "custom_instructions" applied to
// every file of the batch.
func HandleUploadPhotos(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		fiberlog.Errorf("Error parsing multipart form: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart form"})
	}
	defer form.RemoveAll()

	files := form.File["images"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no images uploaded"})
	}
	if len(files) > upload.MaxFiles {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": upload.ErrTooManyFiles.Error()})
	}

	requestedType := strings.TrimSpace(c.FormValue("photo_type"))
	selectedOptions := form.Value["options"]
	customInstructions := strings.TrimSpace(c.FormValue("custom_instructions"))

	// Validate the whole batch up front so a bad file never produces a
	// half-ingested batch.
	payloads := make([][]byte, 0, len(files))
	mimes := make([]string, 0, len(files))
	for _, file := range files {
		data, mime, err := readValidatedUpload(file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s: %s", file.Filename, err.Error()),
			})
		}
		payloads = append(payloads, data)
		mimes = append(mimes, mime)
	}

	db := database.GetDB()
	store := storage.GetStore()

	response := make([]uploadedImageResponse, 0, len(files))
	for i, file := range files {
		data := payloads[i]
		mime := mimes[i]

		format, err := enhancer.FormatFromMime(mime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		photo := &models.Photo{
			UUID:         uuid.New().String(),
			OriginalName: file.Filename,
			FileSize:     file.Size,
			MimeType:     mime,
		}

		filePath, err := store.Save(storage.KindOriginal, photo.UUID+format.Ext(), data)
		if err != nil {
			fiberlog.Errorf("[Upload] Saving %s failed: %v", file.Filename, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not store upload"})
		}
		photo.FilePath = filePath

		if img, err := enhancer.DecodeImage(data, format); err == nil {
			bounds := img.Bounds()
			photo.Width = bounds.Dx()
			photo.Height = bounds.Dy()
		}

		if err := enhancer.ExtractMetadata(photo, data); err != nil {
			fiberlog.Warnf("[Upload] Metadata extraction for %s failed: %v", file.Filename, err)
		}

		if err := db.Create(photo).Error; err != nil {
			fiberlog.Errorf("[Upload] Persisting %s failed: %v", file.Filename, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not persist upload"})
		}

		photoType := requestedType
		if photoType == "" {
			photoType = enhancer.AnalyzeImageType(file.Filename)
		}
		options := selectedOptions
		if len(options) == 0 {
			options = enhancer.DefaultOptions(photoType)
		}
		instructions := enhancer.GenerateInstructions(options, photoType, customInstructions)

		job, err := apiOrchestrator.CreateJob(photo.UUID, instructions, photoType)
		if err != nil {
			fiberlog.Errorf("[Upload] Creating job for %s failed: %v", photo.UUID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not start enhancement"})
		}
		apiPool.Enqueue(job)

		response = append(response, uploadedImageResponse{
			ID:           job.DisplayID,
			OriginalName: file.Filename,
			PhotoType:    photoType,
			Status:       job.Status,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": response})
}

func readValidatedUpload(file *multipart.FileHeader) ([]byte, string, error) {
	if err := upload.ValidateSize(file.Size); err != nil {
		return nil, "", err
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", errors.New("could not read upload")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, upload.MaxFileSize+1))
	if err != nil {
		return nil, "", errors.New("could not read upload")
	}
	if int64(len(data)) > upload.MaxFileSize {
		return nil, "", upload.ErrFileTooLarge
	}

	mime, err := upload.ValidateImageBySniff(file.Filename, data)
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}
