package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/taigatrans/routegrid/model"
)

const batchSize = 500

// RealStops returns every stop built from authoritative data.
func (s *Store) RealStops(ctx context.Context) ([]model.Stop, error) {
	return s.stops(ctx, false)
}

// VirtualStops returns every synthesized stop.
func (s *Store) VirtualStops(ctx context.Context) ([]model.Stop, error) {
	return s.stops(ctx, true)
}

func (s *Store) stops(ctx context.Context, virtual bool) ([]model.Stop, error) {
	var rows []stopModel
	if err := s.db.WithContext(ctx).Where("is_virtual = ?", virtual).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Stop, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// CountRealStops counts stops built from authoritative data.
func (s *Store) CountRealStops(ctx context.Context) (int64, error) {
	return s.countStops(ctx, false)
}

// CountVirtualStops counts synthesized stops.
func (s *Store) CountVirtualStops(ctx context.Context) (int64, error) {
	return s.countStops(ctx, true)
}

func (s *Store) countStops(ctx context.Context, virtual bool) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&stopModel{}).Where("is_virtual = ?", virtual).Count(&n).Error
	return n, err
}

// RealStopsByCity returns real stops whose city matches the given id.
func (s *Store) RealStopsByCity(ctx context.Context, cityID string) ([]model.Stop, error) {
	return s.stopsByCity(ctx, cityID, false)
}

// VirtualStopsByCity returns virtual stops whose city matches the given id.
func (s *Store) VirtualStopsByCity(ctx context.Context, cityID string) ([]model.Stop, error) {
	return s.stopsByCity(ctx, cityID, true)
}

func (s *Store) stopsByCity(ctx context.Context, cityID string, virtual bool) ([]model.Stop, error) {
	var rows []stopModel
	err := s.db.WithContext(ctx).
		Where("city_id = ? AND is_virtual = ?", cityID, virtual).
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Stop, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// SaveVirtualStops upserts a batch of synthesized stops.
func (s *Store) SaveVirtualStops(ctx context.Context, stops []model.Stop) error {
	return s.SaveStops(ctx, stops)
}

// SaveStops upserts a batch of stops of either origin.
func (s *Store) SaveStops(ctx context.Context, stops []model.Stop) error {
	if len(stops) == 0 {
		return nil
	}
	rows := make([]stopModel, 0, len(stops))
	for _, st := range stops {
		rows = append(rows, toStopModel(st))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
}

// AllRoutes returns every route, real and virtual.
func (s *Store) AllRoutes(ctx context.Context) ([]model.Route, error) {
	var rows []routeModel
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Route, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// VirtualRoutes returns only synthesized routes.
func (s *Store) VirtualRoutes(ctx context.Context) ([]model.Route, error) {
	var rows []routeModel
	if err := s.db.WithContext(ctx).Where("is_virtual = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Route, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// CountRoutes counts all routes.
func (s *Store) CountRoutes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&routeModel{}).Count(&n).Error
	return n, err
}

// CountVirtualRoutes counts synthesized routes.
func (s *Store) CountVirtualRoutes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&routeModel{}).Where("is_virtual = ?", true).Count(&n).Error
	return n, err
}

// SaveVirtualRoutes upserts a batch of synthesized routes.
func (s *Store) SaveVirtualRoutes(ctx context.Context, routes []model.Route) error {
	return s.SaveRoutes(ctx, routes)
}

// SaveRoutes upserts a batch of routes of either origin.
func (s *Store) SaveRoutes(ctx context.Context, routes []model.Route) error {
	if len(routes) == 0 {
		return nil
	}
	rows := make([]routeModel, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, toRouteModel(r))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
}

// AllFlights returns every scheduled trip, real and virtual.
func (s *Store) AllFlights(ctx context.Context) ([]model.Flight, error) {
	var rows []flightModel
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Flight, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// CountFlights counts all scheduled trips.
func (s *Store) CountFlights(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&flightModel{}).Count(&n).Error
	return n, err
}

// SaveFlights upserts a batch of scheduled trips.
func (s *Store) SaveFlights(ctx context.Context, flights []model.Flight) error {
	if len(flights) == 0 {
		return nil
	}
	rows := make([]flightModel, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, toFlightModel(f))
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, batchSize).Error
}
