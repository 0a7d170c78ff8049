package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/taigatrans/routegrid/model"
)

// LatestDataset returns the most recently created dataset record.
func (s *Store) LatestDataset(ctx context.Context) (model.Dataset, error) {
	var m datasetModel
	err := s.db.WithContext(ctx).Order("created_at DESC, version DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Dataset{}, ErrNoDataset
	}
	if err != nil {
		return model.Dataset{}, err
	}
	return m.toDomain(), nil
}

// CreateDataset registers a new dataset version.
func (s *Store) CreateDataset(ctx context.Context, version string) (model.Dataset, error) {
	m := datasetModel{Version: version, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return model.Dataset{}, err
	}
	return m.toDomain(), nil
}

// UpdateStatistics writes recomputed inventory counts back to a dataset.
func (s *Store) UpdateStatistics(ctx context.Context, version string, stats model.DatasetStats) error {
	res := s.db.WithContext(ctx).Model(&datasetModel{}).
		Where("version = ?", version).
		Updates(map[string]any{
			"stops":          stats.Stops,
			"virtual_stops":  stats.VirtualStops,
			"routes":         stats.Routes,
			"virtual_routes": stats.VirtualRoutes,
			"flights":        stats.Flights,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
