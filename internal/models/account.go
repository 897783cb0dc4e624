// Package models contains data structures for the application's domain models.
package models

import "time"

// Identity providers an Account can come from.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is the identity provider's own record of a sign-in subject.
type Account struct {
	UID             string    `gorm:"primaryKey;size:36" json:"uid"`
	Username        *string   `gorm:"size:50;uniqueIndex" json:"username,omitempty"`
	Email           *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	PasswordHash    string    `gorm:"size:255" json:"-"`
	DisplayName     string    `gorm:"size:120" json:"displayName"`
	PhotoURL        string    `json:"photoURL"`
	Provider        string    `gorm:"size:20;not null;default:'password'" json:"provider"`
	ProviderSubject *string   `gorm:"size:255;uniqueIndex" json:"-"`
	IsAdmin         bool      `gorm:"default:false" json:"isAdmin"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Principal returns the claims the provider asserts for this account.
func (a *Account) Principal() Principal {
	p := Principal{
		UID:         a.UID,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		Provider:    a.Provider,
	}
	if a.Email != nil {
		p.Email = *a.Email
	}
	return p
}

// Principal is an authenticated identity as asserted by the identity provider.
type Principal struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Provider    string `json:"provider,omitempty"`
}
