package models

import "gorm.io/gorm"

// SeedDefaultTemplates inserts the built-in templates for any stage that has
// no default yet. Safe to run on every startup.
func SeedDefaultTemplates(db *gorm.DB) error {
	for _, tmpl := range BuiltinTemplates {
		var count int64
		if err := db.Model(&EmailTemplate{}).
			Where("type = ? AND is_default = ?", tmpl.Type, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&tmpl).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureSettings guarantees the single settings row exists
func EnsureSettings(db *gorm.DB) error {
	var settings CenterSettings
	return db.FirstOrCreate(&settings, CenterSettings{}).Error
}

// GetSettings loads the single settings row
func GetSettings(db *gorm.DB) (*CenterSettings, error) {
	var settings CenterSettings
	if err := db.First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
