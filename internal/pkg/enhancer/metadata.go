package enhancer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/StefanBrandt/FotoFix/app/models"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractMetadata reads EXIF metadata from the uploaded bytes into the photo
// record. Missing or unreadable EXIF is normal for many sources and never an
// error.
func ExtractMetadata(photo *models.Photo, data []byte) error {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Info(fmt.Sprintf("No EXIF data found for photo %s: %v", photo.UUID, err))
		return nil
	}

	allMetadata := make(map[string]interface{})

	// Walk the common tags by hand to avoid type surprises in exotic files.
	for _, tag := range []exif.FieldName{
		exif.Model, exif.Make, exif.Software, exif.Artist,
		exif.Copyright, exif.ExposureTime, exif.FNumber, exif.ISOSpeedRatings,
		exif.FocalLength, exif.ExposureProgram, exif.MeteringMode,
		exif.Flash, exif.FocalLengthIn35mmFilm, exif.WhiteBalance,
		exif.SceneCaptureType, exif.GPSLatitude, exif.GPSLongitude,
		exif.GPSAltitude, exif.DateTime, exif.DateTimeOriginal,
		exif.DateTimeDigitized, exif.ExposureMode,
	} {
		if tagVal, err := x.Get(tag); err == nil {
			allMetadata[string(tag)] = strings.Trim(tagVal.String(), `"`)
		}
	}

	if m, err := x.Get(exif.Model); err == nil {
		trimmed := strings.TrimSpace(strings.Trim(m.String(), `"`))
		photo.CameraModel = &trimmed
	}

	if dt, err := x.DateTime(); err == nil {
		photo.TakenAt = &dt
	}

	if lat, long, err := x.LatLong(); err == nil {
		photo.Latitude = &lat
		photo.Longitude = &long
	}

	if len(allMetadata) > 0 {
		raw, err := json.Marshal(allMetadata)
		if err != nil {
			return fmt.Errorf("error marshaling metadata: %w", err)
		}
		meta := models.JSON(raw)
		photo.Metadata = &meta
	}

	return nil
}
