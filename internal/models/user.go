package models

import (
	"time"
)

type User struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	Username       string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	PasswordHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	IsStaff        bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser    bool      `gorm:"not null;default:false" json:"is_superuser"`
	CanManageTasks bool      `gorm:"not null;default:false" json:"can_manage_tasks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Tasks     []Task               `gorm:"foreignKey:OwnerID" json:"-"`
	TaskRoles []TaskRoleAssignment `gorm:"foreignKey:UserID" json:"-"`
}
