// Package models defines the POS entities stored on the device and exchanged
// with the remote store. JSON tags give the local (camelCase) field names.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Base is the shape shared by every synchronised entity.
type Base struct {
	ID        string     `json:"id" validate:"required,uuid"`
	OwnerID   string     `json:"ownerId" validate:"required,uuid"`
	CreatedAt time.Time  `json:"createdAt" validate:"required"`
	UpdatedAt time.Time  `json:"updatedAt" validate:"required,gtefield=CreatedAt"`
	SyncedAt  *time.Time `json:"syncedAt"`
	IsDeleted bool       `json:"isDeleted"`
}

// Syncable is implemented by pointers to every synchronised entity.
type Syncable interface {
	Meta() *Base
}

// Meta gives access to the shared fields.
func (b *Base) Meta() *Base { return b }

// NewBase returns the base of a freshly created entity with a client-side id.
func NewBase(ownerID string, now time.Time) Base {
	now = Now(now)
	return Base{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a local mutation: the row becomes pending again.
func (b *Base) Touch(now time.Time) {
	now = Now(now)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if now.Before(b.CreatedAt) {
		now = b.CreatedAt
	}
	b.UpdatedAt = now
	b.SyncedAt = nil
}

// Pending reports whether the remote store has not acknowledged this version.
func (b *Base) Pending() bool { return b.SyncedAt == nil }

// Now normalises a timestamp to the precision kept by both stores.
func Now(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
