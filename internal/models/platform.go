package models

import "time"

// PlatformBranding holds a platform's visual identity.
type PlatformBranding struct {
	LogoURL      string `gorm:"column:logo_url" json:"logoUrl,omitempty"`
	PrimaryColor string `gorm:"column:primary_color;size:16" json:"primaryColor,omitempty"`
}

// PlatformFeatures toggles optional platform sections.
type PlatformFeatures struct {
	Communities    bool `gorm:"column:communities" json:"communities"`
	Courses        bool `gorm:"column:courses" json:"courses"`
	SuccessStories bool `gorm:"column:success_stories" json:"successStories"`
}

// PlatformSettings wraps the feature toggles.
type PlatformSettings struct {
	Features PlatformFeatures `gorm:"embedded;embeddedPrefix:feature_" json:"features"`
}

// Platform is a top-level branded tenant containing communities.
type Platform struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:120;not null" json:"name"`
	Slug        string           `gorm:"size:64;not null;uniqueIndex" json:"slug"`
	Tagline     string           `gorm:"size:255" json:"tagline,omitempty"`
	Description string           `gorm:"type:text" json:"description,omitempty"`
	Branding    PlatformBranding `gorm:"embedded;embeddedPrefix:branding_" json:"branding"`
	Settings    PlatformSettings `gorm:"embedded" json:"settings"`
	OwnerID     string           `gorm:"size:36;index" json:"ownerId"`
	Public      bool             `gorm:"not null;default:false;index" json:"public"`
	CreatedAt   time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// TableName specifies the table name for GORM.
func (Platform) TableName() string {
	return "platforms"
}

// IsOwner reports whether uid owns the platform.
func (p *Platform) IsOwner(uid string) bool {
	return p != nil && uid != "" && p.OwnerID == uid
}

// Community is a sub-group within a platform with its own feed.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlatformID  uint      `gorm:"not null;index" json:"platformId"`
	Platform    *Platform `gorm:"foreignKey:PlatformID" json:"-"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	MemberCount int       `gorm:"not null;default:0" json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlatformMember is platforms/{id}/members/{uid}: payment state plus the
// communities the user was admitted to.
type PlatformMember struct {
	PlatformID   uint      `gorm:"primaryKey;autoIncrement:false" json:"platformId"`
	UserID       string    `gorm:"primaryKey;size:36" json:"uid"`
	HasPaid      bool      `gorm:"not null;default:false" json:"hasPaid"`
	CommunityIDs []uint    `gorm:"-" json:"communities"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MemberCommunity records admission of a platform member to one community.
type MemberCommunity struct {
	PlatformID  uint      `gorm:"primaryKey;autoIncrement:false" json:"platformId"`
	UserID      string    `gorm:"primaryKey;size:36" json:"uid"`
	CommunityID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"communityId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CanAccess reports whether the member may read the full feed of a community.
// Payment unlocks every community of the platform; an explicit admission
// unlocks one.
func (m *PlatformMember) CanAccess(communityID uint) bool {
	if m == nil {
		return false
	}
	if m.HasPaid {
		return true
	}
	for _, id := range m.CommunityIDs {
		if id == communityID {
			return true
		}
	}
	return false
}

// CommunityAccess is the viewer's standing in a community.
type CommunityAccess struct {
	HasAccess bool `json:"hasAccess"`
	IsOwner   bool `json:"isOwner"`
	CanPost   bool `json:"canPost"`
}
