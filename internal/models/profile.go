package models

import (
	"strings"
	"time"
)

// Role is a user's tier in the application.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleMember  Role = "member"
	RoleVisitor Role = "visitor"
	RoleMentor  Role = "mentor"
)

// DefaultRole is assigned to every newly provisioned profile.
const DefaultRole = RoleMember

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleMember, RoleVisitor, RoleMentor:
		return true
	}
	return false
}

// Profile is the users/{uid} document backing a principal.
type Profile struct {
	UserID      string    `gorm:"primaryKey;size:36" json:"uid"`
	DisplayName string    `gorm:"size:120" json:"displayName"`
	Email       string    `gorm:"size:255" json:"email"`
	PhotoURL    string    `json:"photoURL"`
	Role        Role      `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProfileFor builds the first-sight profile for a principal.
func NewProfileFor(p Principal) Profile {
	return Profile{
		UserID:      p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		PhotoURL:    p.PhotoURL,
		Role:        DefaultRole,
	}
}

// UserView is the client-side view of the signed-in user.
type UserView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Email     string `json:"email,omitempty"`
}

// NewUserView maps a principal and its profile into a UserView. A nil profile
// yields the minimal view derived from the principal's own claims.
func NewUserView(p Principal, profile *Profile) UserView {
	v := UserView{
		ID:        p.UID,
		Role:      DefaultRole,
		AvatarURL: p.PhotoURL,
		Email:     p.Email,
	}

	var profileName string
	if profile != nil {
		profileName = profile.DisplayName
		if profile.Role.Valid() {
			v.Role = profile.Role
		}
		if profile.PhotoURL != "" {
			v.AvatarURL = profile.PhotoURL
		}
		if profile.Email != "" {
			v.Email = profile.Email
		}
	}

	v.Name = firstNonBlank(profileName, p.DisplayName, p.Email, "User")
	return v
}

func firstNonBlank(values ...string) string {
	for _, s := range values {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
