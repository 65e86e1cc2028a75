// Package entity defines the domain entities for the flowchart feature.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlowChart is a stored generation result owned by exactly one user.
type FlowChart struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null"`

	InputMethod string `gorm:"size:32"`
	AIModel     string `gorm:"size:64;not null"`

	// InputText is the inline text the caller submitted, if any.
	InputText string `gorm:"type:text"`

	// SourceFileKey is the object storage key of the uploaded file, if any.
	SourceFileKey string `gorm:"size:512"`

	MermaidString string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// BeforeCreate assigns a new ID when none is set.
func (f *FlowChart) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
