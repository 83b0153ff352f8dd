package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"porkorder/internal/database"
	"porkorder/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db), db
}

func lastLogID(t *testing.T, svc *Service) uint {
	t.Helper()
	logs, err := svc.List(context.Background(), Filter{Limit: 1})
	if err != nil || len(logs) == 0 {
		t.Fatalf("List: %v (%d logs)", err, len(logs))
	}
	return logs[0].ID
}

func TestUndoUpdateRestoresBefore(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	before := models.Product{Name: "五花肉", Unit: "斤", Price: decimal.NewFromInt(145)}
	if err := db.Create(&before).Error; err != nil {
		t.Fatal(err)
	}
	after := before
	after.Price = decimal.NewFromInt(160)
	if err := db.Save(&after).Error; err != nil {
		t.Fatal(err)
	}

	err := svc.WriteLog(ctx, LogOptions{
		Actor: "admin", EntityType: EntityProduct, EntityID: before.ID,
		Action: models.AuditActionUpdate, Before: before, After: after,
	})
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	id := lastLogID(t, svc)

	if err := svc.UndoLog(ctx, id, "admin"); err != nil {
		t.Fatalf("UndoLog: %v", err)
	}
	var got models.Product
	db.First(&got, before.ID)
	if !got.Price.Equal(decimal.NewFromInt(145)) {
		t.Fatalf("price after undo = %s", got.Price)
	}

	if err := svc.UndoLog(ctx, id, "admin"); !errors.Is(err, ErrAlreadyUndone) {
		t.Fatalf("second undo: %v", err)
	}

	logs, _ := svc.List(ctx, Filter{EntityType: EntityProduct, EntityID: before.ID})
	if len(logs) != 2 || logs[0].Action != models.AuditActionUndo {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestUndoDeleteKeepsID(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := models.Product{ID: 7, Name: "豬腳", Unit: "只", Price: decimal.NewFromInt(180)}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(&models.Product{}, 7).Error; err != nil {
		t.Fatal(err)
	}
	if err := svc.WriteLog(ctx, LogOptions{EntityType: EntityProduct, EntityID: 7, Action: models.AuditActionDelete, Before: p}); err != nil {
		t.Fatal(err)
	}

	if err := svc.UndoLog(ctx, lastLogID(t, svc), "admin"); err != nil {
		t.Fatalf("UndoLog: %v", err)
	}
	var got models.Product
	if err := db.First(&got, 7).Error; err != nil {
		t.Fatalf("product 7 not recreated: %v", err)
	}
	if got.Name != "豬腳" || !got.Price.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("recreated = %+v", got)
	}
}

func TestUndoCreateDeletes(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := models.Product{Name: "絞肉", Unit: "斤", Price: decimal.NewFromInt(120)}
	db.Create(&p)
	if err := svc.WriteLog(ctx, LogOptions{EntityType: EntityProduct, EntityID: p.ID, Action: models.AuditActionCreate, After: p}); err != nil {
		t.Fatal(err)
	}

	if err := svc.UndoLog(ctx, lastLogID(t, svc), "admin"); err != nil {
		t.Fatalf("UndoLog: %v", err)
	}
	var n int64
	db.Model(&models.Product{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d products left", n)
	}
}

func TestUndoErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.UndoLog(ctx, 99, "admin"); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("missing log: %v", err)
	}

	// workbook imports are logged without an entity id
	if err := svc.WriteLog(ctx, LogOptions{EntityType: EntityProduct, Action: models.AuditActionUpdate}); err != nil {
		t.Fatal(err)
	}
	if err := svc.UndoLog(ctx, lastLogID(t, svc), "admin"); !errors.Is(err, ErrNotUndoable) {
		t.Fatalf("import log undo: %v", err)
	}
}
