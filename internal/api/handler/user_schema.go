package handler

import (
	"time"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=100"`
	Role      *string `json:"role"      validate:"omitempty,oneof=user moderator admin"`
	IsActive  *bool   `json:"isActive"`
}

// userResponse is the administrator's view of an account.
type userResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		IsActive:  req.IsActive,
	}
}

func toUserResponse(p *domain.Principal) userResponse {
	return userResponse{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
