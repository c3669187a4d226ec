package database

import "inkwell/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.Comment{},
		&models.PostLike{},
		&models.SavedPost{},
	}
}
