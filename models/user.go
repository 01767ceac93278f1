package models

import "gorm.io/gorm"

// User represents a staff account. Token issuance happens in the external
// auth layer; this record only backs the JWT guard.
type User struct {
	gorm.Model

	Email string  `gorm:"uniqueIndex;not null" json:"email"`
	Name  *string `json:"name,omitempty"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`
	IsAdmin  bool `gorm:"default:false" json:"is_admin"`

	// Incremented to invalidate outstanding tokens
	TokenVersion int `gorm:"default:0" json:"-"`
}
