package dto

import "github.com/yukikurage/task-tracker-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	}
}

// MeDTO describes the authenticated user, including capabilities
type MeDTO struct {
	UserDTO
	IsSuperuser    bool `json:"is_superuser"`
	CanManageTasks bool `json:"can_manage_tasks"`
}

// ToMeDTO converts a User model to MeDTO
func ToMeDTO(user models.User) MeDTO {
	return MeDTO{
		UserDTO:        ToUserDTO(user),
		IsSuperuser:    user.IsSuperuser,
		CanManageTasks: user.CanManageTasks,
	}
}
