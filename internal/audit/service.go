package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"porkorder/internal/models"

	"gorm.io/gorm"
)

const EntityProduct = "product"

var (
	ErrLogNotFound   = errors.New("audit log not found")
	ErrAlreadyUndone = errors.New("change already undone")
	ErrNotUndoable   = errors.New("change cannot be undone")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type LogOptions struct {
	Actor       string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		Actor:       opts.Actor,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

type Filter struct {
	EntityType string
	EntityID   uint
	Limit      int
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// UndoLog reverts one logged change and records the undo as a new log row.
func (s *Service) UndoLog(ctx context.Context, logID uint, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return fmt.Errorf("load audit log %d: %w", logID, err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}
		if entry.EntityID == 0 {
			return ErrNotUndoable
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, entry.EntityType, entry.EntityID); err != nil {
				return fmt.Errorf("delete %s %d: %w", entry.EntityType, entry.EntityID, err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData); err != nil {
				return fmt.Errorf("restore %s %d: %w", entry.EntityType, entry.EntityID, err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, entry.EntityType, entry.BeforeData); err != nil {
				return fmt.Errorf("recreate %s %d: %w", entry.EntityType, entry.EntityID, err)
			}
		default:
			return ErrNotUndoable
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = actor
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("mark audit log %d undone: %w", logID, err)
		}

		undo := models.AuditLog{
			Actor:       actor,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "undo: " + entry.Description,
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo log: %w", err)
		}
		return nil
	})
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func deleteEntity(tx *gorm.DB, entityType string, id uint) error {
	switch entityType {
	case EntityProduct:
		return tx.Delete(&models.Product{}, id).Error
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
}

// recreateEntity keeps the original id: product ids are the numbers staff type into order sheets.
func recreateEntity(tx *gorm.DB, entityType, data string) error {
	switch entityType {
	case EntityProduct:
		var p models.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return err
		}
		if p.ID == 0 {
			return ErrNotUndoable
		}
		return tx.Create(&p).Error
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
}

func restoreEntity(tx *gorm.DB, entityType string, id uint, data string) error {
	switch entityType {
	case EntityProduct:
		var p models.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return err
		}
		return tx.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":  p.Name,
			"unit":  p.Unit,
			"price": p.Price,
		}).Error
	default:
		return fmt.Errorf("unknown entity type %q", entityType)
	}
}
