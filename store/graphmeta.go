package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/taigatrans/routegrid/model"
)

// GraphMetadataByDatasetVersion returns all graph versions built from one
// dataset version, newest first.
func (s *Store) GraphMetadataByDatasetVersion(ctx context.Context, datasetVersion string) ([]model.GraphMetadata, error) {
	var rows []graphMetadataModel
	err := s.db.WithContext(ctx).
		Where("dataset_version = ?", datasetVersion).
		Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.GraphMetadata, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// SaveGraphMetadata persists one graph version record. Published versions are
// immutable, so this is insert-only.
func (s *Store) SaveGraphMetadata(ctx context.Context, g model.GraphMetadata) error {
	m := toGraphMetadataModel(g)
	return s.db.WithContext(ctx).Create(&m).Error
}

// ActiveGraphMetadata returns the single active graph version, if any.
func (s *Store) ActiveGraphMetadata(ctx context.Context) (model.GraphMetadata, error) {
	var m graphMetadataModel
	err := s.db.WithContext(ctx).Where("active = ?", true).First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return model.GraphMetadata{}, ErrNotFound
	}
	if err != nil {
		return model.GraphMetadata{}, err
	}
	return m.toDomain(), nil
}

// SetActiveGraphMetadata flips the active flag to the given version in one
// transaction, so exactly one version is ever active.
func (s *Store) SetActiveGraphMetadata(ctx context.Context, version string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&graphMetadataModel{}).Where("version = ?", version).Update("active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&graphMetadataModel{}).
			Where("version <> ? AND active = ?", version, true).
			Update("active", false).Error
	})
}
