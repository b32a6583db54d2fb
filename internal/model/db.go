package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Link{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Visit{}); err != nil {
		return err
	}

	return nil
}
