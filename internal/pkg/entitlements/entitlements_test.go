package entitlements

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/StefanBrandt/FotoFix/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:entitlements_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.EnhancementJob{}, &models.PaidEntitlement{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedJob(t *testing.T, db *gorm.DB, status string) *models.EnhancementJob {
	t.Helper()
	job := &models.EnhancementJob{
		PhotoUUID: uuid.NewString(),
		Status:    status,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestCanPreviewUnknownJob(t *testing.T) {
	gate := NewDeliveryGate(newTestDB(t))

	_, err := gate.CanPreview("does-not-exist")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestCanPreviewRequiresReadyState(t *testing.T) {
	db := newTestDB(t)
	gate := NewDeliveryGate(db)

	for _, status := range []string{
		models.JobStatusCreated,
		models.JobStatusTransformRequested,
		models.JobStatusFallbackApplied,
		models.JobStatusFailed,
	} {
		job := seedJob(t, db, status)
		if _, err := gate.CanPreview(job.DisplayID); !errors.Is(err, ErrNotReady) {
			t.Fatalf("status %s: expected ErrNotReady, got %v", status, err)
		}
	}

	ready := seedJob(t, db, models.JobStatusReady)
	got, err := gate.CanPreview(ready.DisplayID)
	if err != nil {
		t.Fatalf("preview for ready job: %v", err)
	}
	if got.DisplayID != ready.DisplayID {
		t.Fatalf("expected job %s, got %s", ready.DisplayID, got.DisplayID)
	}
}

func TestCanDownloadRequiresEntitlement(t *testing.T) {
	db := newTestDB(t)
	gate := NewDeliveryGate(db)

	job := seedJob(t, db, models.JobStatusReady)

	// Ready but unpaid
	if _, err := gate.CanDownload(job.DisplayID); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("expected ErrNotPaid, got %v", err)
	}

	entitlement := models.PaidEntitlement{
		JobDisplayID:      job.DisplayID,
		CheckoutSessionID: 1,
		ProviderSessionID: "cs_test_paid",
		PaidAt:            time.Now(),
	}
	if err := db.Create(&entitlement).Error; err != nil {
		t.Fatalf("create entitlement: %v", err)
	}

	got, err := gate.CanDownload(job.DisplayID)
	if err != nil {
		t.Fatalf("download after payment: %v", err)
	}
	if got.DisplayID != job.DisplayID {
		t.Fatalf("expected job %s, got %s", job.DisplayID, got.DisplayID)
	}
}

func TestEntitlementBoundToExactGeneration(t *testing.T) {
	db := newTestDB(t)
	gate := NewDeliveryGate(db)

	photoUUID := uuid.NewString()
	original := &models.EnhancementJob{PhotoUUID: photoUUID, Generation: 0, Status: models.JobStatusReady}
	if err := db.Create(original).Error; err != nil {
		t.Fatalf("seed generation 0: %v", err)
	}
	redo := &models.EnhancementJob{PhotoUUID: photoUUID, Generation: 1, Status: models.JobStatusReady}
	if err := db.Create(redo).Error; err != nil {
		t.Fatalf("seed generation 1: %v", err)
	}

	entitlement := models.PaidEntitlement{
		JobDisplayID:      original.DisplayID,
		CheckoutSessionID: 1,
		ProviderSessionID: "cs_test_gen",
		PaidAt:            time.Now(),
	}
	if err := db.Create(&entitlement).Error; err != nil {
		t.Fatalf("create entitlement: %v", err)
	}

	if _, err := gate.CanDownload(original.DisplayID); err != nil {
		t.Fatalf("paid generation should download: %v", err)
	}
	if _, err := gate.CanDownload(redo.DisplayID); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("redo generation must not inherit payment, got %v", err)
	}
}
