package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Actor string `gorm:"size:100" json:"actor"`

	// Entity being changed, e.g. "product".
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// JSON snapshots; "null" when absent.
	BeforeData string `gorm:"type:text" json:"before_data"`
	AfterData  string `gorm:"type:text" json:"after_data"`

	// Set on the log row created by an undo.
	Undone bool `json:"undone"`

	// Set on the original row once it has been undone.
	IsUndone bool       `gorm:"default:false" json:"is_undone"`
	UndoneBy string     `gorm:"size:100" json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
