package models

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// OwnedAggregateModel provides common persistence fields for user-owned
// aggregate roots. It extends BaseModel with the owner ID and a version
// for optimistic locking.
type OwnedAggregateModel struct {
	BaseModel
	Version int       `gorm:"not null;default:1"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainOwnedAggregateRoot populates OwnedAggregateModel from a domain OwnedAggregateRoot
func (m *OwnedAggregateModel) FromDomainOwnedAggregateRoot(a shared.OwnedAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
	m.OwnerID = a.OwnerID
}

// PopulateOwnedAggregateRoot populates a domain OwnedAggregateRoot from the persistence model
func (m *OwnedAggregateModel) PopulateOwnedAggregateRoot(a *shared.OwnedAggregateRoot) {
	a.BaseEntity.ID = m.ID
	a.BaseEntity.CreatedAt = m.CreatedAt
	a.BaseEntity.UpdatedAt = m.UpdatedAt
	a.Version = m.Version
	a.OwnerID = m.OwnerID
}
