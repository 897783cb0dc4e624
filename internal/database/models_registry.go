package database

import "rwid/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Profile{},
		&models.Platform{},
		&models.Community{},
		&models.PlatformMember{},
		&models.MemberCommunity{},
		&models.Post{},
		&models.Reaction{},
		&models.Bookmark{},
	}
}
