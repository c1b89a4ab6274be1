package models

import (
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:models_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Photo{}, &EnhancementJob{}, &CheckoutSession{}, &PaidEntitlement{}, &PaymentWebhookEvent{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestJobDisplayID(t *testing.T) {
	tests := []struct {
		photoUUID  string
		generation int
		want       string
	}{
		{photoUUID: "abc", generation: 0, want: "abc"},
		{photoUUID: "abc", generation: 1, want: "abc_redo1"},
		{photoUUID: "abc", generation: 7, want: "abc_redo7"},
	}

	for _, tt := range tests {
		if got := JobDisplayID(tt.photoUUID, tt.generation); got != tt.want {
			t.Fatalf("JobDisplayID(%q, %d) = %q, want %q", tt.photoUUID, tt.generation, got, tt.want)
		}
	}
}

func TestBeforeCreateFillsDisplayID(t *testing.T) {
	db := newTestDB(t)

	job := &EnhancementJob{PhotoUUID: "photo-1", Generation: 2, Status: JobStatusCreated}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	if job.DisplayID != "photo-1_redo2" {
		t.Fatalf("expected display id photo-1_redo2, got %q", job.DisplayID)
	}
}

func TestMaxGenerationForPhoto(t *testing.T) {
	db := newTestDB(t)

	gen, err := MaxGenerationForPhoto(db, "photo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != -1 {
		t.Fatalf("expected -1 for empty lineage, got %d", gen)
	}

	for i := 0; i <= 2; i++ {
		job := &EnhancementJob{PhotoUUID: "photo-1", Generation: i, Status: JobStatusCreated}
		if err := db.Create(job).Error; err != nil {
			t.Fatalf("create generation %d: %v", i, err)
		}
	}

	gen, err = MaxGenerationForPhoto(db, "photo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen != 2 {
		t.Fatalf("expected max generation 2, got %d", gen)
	}
}

func TestDuplicateGenerationRejected(t *testing.T) {
	db := newTestDB(t)

	first := &EnhancementJob{PhotoUUID: "photo-1", Generation: 1, Status: JobStatusCreated}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := &EnhancementJob{PhotoUUID: "photo-1", Generation: 1, Status: JobStatusCreated, DisplayID: "other"}
	if err := db.Create(second).Error; err == nil {
		t.Fatalf("expected unique index violation for duplicate generation")
	}
}

func TestFindJobByDisplayID(t *testing.T) {
	db := newTestDB(t)

	job := &EnhancementJob{PhotoUUID: "photo-1", Generation: 1, Status: JobStatusReady}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	found, err := FindJobByDisplayID(db, "photo-1_redo1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != job.ID {
		t.Fatalf("expected job %d, got %d", job.ID, found.ID)
	}

	if _, err := FindJobByDisplayID(db, "missing"); err == nil {
		t.Fatalf("expected error for unknown display id")
	}
}

func TestHasEntitlement(t *testing.T) {
	db := newTestDB(t)

	ok, err := HasEntitlement(db, "photo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no entitlement")
	}

	ent := &PaidEntitlement{JobDisplayID: "photo-1", CheckoutSessionID: 1, ProviderSessionID: "cs_1"}
	if err := db.Create(ent).Error; err != nil {
		t.Fatalf("create entitlement: %v", err)
	}

	ok, err = HasEntitlement(db, "photo-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected entitlement to exist")
	}
}

func TestCheckoutSessionSelectionRoundTrip(t *testing.T) {
	session := &CheckoutSession{}
	if err := session.SetSelection([]string{"a", "b_redo1"}); err != nil {
		t.Fatalf("set selection: %v", err)
	}

	got, err := session.Selection()
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b_redo1" {
		t.Fatalf("unexpected selection %v", got)
	}
}
