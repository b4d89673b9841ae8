// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a tenant. Organizations are deactivated, never deleted.
//
// PasswordHash is the shared organization password used by members who
// have no personal password. It is never serialized to JSON.
type Organization struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // ← always stored

	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	ContactEmail string `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone string `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`
	Website      string `bson:"website,omitempty" json:"website,omitempty"`

	IsActive     bool   `bson:"is_active" json:"is_active"`
	PasswordHash string `bson:"password_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OrganizationCounts carries the per-organization roll-ups shown to
// super admins. They are computed on read, not stored.
type OrganizationCounts struct {
	UserCount     int64 `json:"user_count"`
	TaskCount     int64 `json:"task_count"`
	DocumentCount int64 `json:"document_count"`
}

// MinOrgPasswordLength is the shortest shared organization password accepted.
const MinOrgPasswordLength = 8
