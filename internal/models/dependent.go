package models

import "time"

// Role is the relationship a user has with a dependent
type Role string

const (
	// RoleFamily owns the dependent and has full rights
	RoleFamily       Role = "FAMILY"
	RoleCaregiver    Role = "CAREGIVER"
	RoleProfessional Role = "PROFESSIONAL"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleFamily, RoleCaregiver, RoleProfessional:
		return true
	}
	return false
}

// Dependent is a person receiving care
type Dependent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BirthDate *string   `json:"birthDate,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DependentUser links a user to a dependent with a role
type DependentUser struct {
	ID          int64     `json:"id"`
	DependentID int64     `json:"dependentId"`
	UserID      int64     `json:"userId"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DependentWithRole is a dependent as seen by one linked user
type DependentWithRole struct {
	Dependent
	Role Role `json:"role"`
}

// DependentInput carries the caller-supplied fields of a dependent create or update
type DependentInput struct {
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	BirthDate *string `json:"birthDate"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}
