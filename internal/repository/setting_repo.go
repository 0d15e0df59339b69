package repository

import (
	"coursebot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.BotSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(key, value string) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.BotSetting{Key: key, Value: value}).Error
}

// SetMany upserts every pair in one transaction.
func (r *SettingRepository) SetMany(values map[string]string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txr := &SettingRepository{db: tx}
		for k, v := range values {
			if err := txr.Set(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SettingRepository) GetAll() ([]models.BotSetting, error) {
	var list []models.BotSetting
	err := r.db.Order("`key` ASC").Find(&list).Error
	return list, err
}

// Map returns all stored settings keyed by name.
func (r *SettingRepository) Map() (map[string]string, error) {
	list, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(list))
	for _, s := range list {
		m[s.Key] = s.Value
	}
	return m, nil
}
