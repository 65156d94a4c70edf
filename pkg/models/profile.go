package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRole string

const (
	ProfileRoleViewer ProfileRole = "viewer"
	ProfileRoleSeller ProfileRole = "seller"
)

// Profile is a row of the profile directory. The role column is the only
// source of seller privileges.
type Profile struct {
	ID          string         `gorm:"type:varchar(128);primary_key" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string         `gorm:"type:varchar(120)" json:"display_name"`
	Role        ProfileRole    `gorm:"type:varchar(20);default:'viewer'" json:"role"`
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Role == "" {
		p.Role = ProfileRoleViewer
	}
	return nil
}
