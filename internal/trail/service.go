package trail

import (
	"context"
	"fmt"

	"github.com/TornikeIarajuli/trails-sub000/internal/db"
	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// CreateTrail stores a trail with optional endpoint and route geometry.
// Route geometry is immutable after publish, so there is no update path.
func (s *Service) CreateTrail(ctx context.Context, input Trail) (Trail, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trails (id, name, description, difficulty, start_point, end_point, route, created_by)
		VALUES ($1,$2,$3,$4, ST_GeogFromText($5), ST_GeogFromText($6), ST_GeogFromText($7), $8)
		RETURNING created_at
	`, input.ID, input.Name, input.Description, input.Difficulty,
		pointWKT(input.StartPoint), pointWKT(input.EndPoint), nullableWKT(input.RouteWKT), input.CreatedBy)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trail{}, err
	}
	return input, nil
}

func (s *Service) GetTrail(ctx context.Context, id string) (Trail, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, difficulty,
		       ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       ST_Y(end_point::geometry), ST_X(end_point::geometry),
		       COALESCE(ST_AsText(route), ''), created_by, created_at
		FROM trails WHERE id=$1
	`, id)
	var t Trail
	var startLat, startLng, endLat, endLng *float64
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Difficulty,
		&startLat, &startLng, &endLat, &endLng, &t.RouteWKT, &t.CreatedBy, &t.CreatedAt); err != nil {
		return Trail{}, err
	}
	t.StartPoint = pointFrom(startLat, startLng)
	t.EndPoint = pointFrom(endLat, endLng)
	return t, nil
}

func (s *Service) DeleteTrail(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trails WHERE id=$1`, id)
	return err
}

// Search returns trails whose endpoint lies within radiusKm of a location.
func (s *Service) Search(ctx context.Context, lat, lng, radiusKm float64) ([]Trail, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, difficulty,
		       ST_Y(start_point::geometry), ST_X(start_point::geometry),
		       ST_Y(end_point::geometry), ST_X(end_point::geometry),
		       COALESCE(ST_AsText(route), ''), created_by, created_at
		FROM trails
		WHERE end_point IS NOT NULL
		  AND ST_DWithin(end_point, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY created_at DESC
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Trail
	for rows.Next() {
		var t Trail
		var startLat, startLng, endLat, endLng *float64
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Difficulty,
			&startLat, &startLng, &endLat, &endLng, &t.RouteWKT, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.StartPoint = pointFrom(startLat, startLng)
		t.EndPoint = pointFrom(endLat, endLng)
		results = append(results, t)
	}
	return results, nil
}

func (s *Service) CreateCheckpoint(ctx context.Context, input Checkpoint) (Checkpoint, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO checkpoints (id, trail_id, name, location, is_checkable, sort_order)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6, $7)
		RETURNING created_at
	`, input.ID, input.TrailID, input.Name, input.Coordinates.Lng, input.Coordinates.Lat,
		input.IsCheckable, input.SortOrder)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Checkpoint{}, err
	}
	return input, nil
}

func (s *Service) UpdateCheckpoint(ctx context.Context, id string, patch Checkpoint) (Checkpoint, error) {
	cp, err := s.GetCheckpoint(ctx, id)
	if err != nil {
		return Checkpoint{}, err
	}
	if patch.Name != "" {
		cp.Name = patch.Name
	}
	if patch.Coordinates.Lat != 0 || patch.Coordinates.Lng != 0 {
		cp.Coordinates = patch.Coordinates
	}
	cp.IsCheckable = patch.IsCheckable
	if patch.SortOrder != 0 {
		cp.SortOrder = patch.SortOrder
	}

	_, err = s.db.Exec(ctx, `
		UPDATE checkpoints
		SET name=$2, location=ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography,
		    is_checkable=$5, sort_order=$6
		WHERE id=$1
	`, cp.ID, cp.Name, cp.Coordinates.Lng, cp.Coordinates.Lat, cp.IsCheckable, cp.SortOrder)
	if err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

func (s *Service) GetCheckpoint(ctx context.Context, id string) (Checkpoint, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trail_id, name, ST_Y(location::geometry), ST_X(location::geometry),
		       is_checkable, sort_order, created_at
		FROM checkpoints WHERE id=$1
	`, id)
	var cp Checkpoint
	if err := row.Scan(&cp.ID, &cp.TrailID, &cp.Name, &cp.Coordinates.Lat, &cp.Coordinates.Lng,
		&cp.IsCheckable, &cp.SortOrder, &cp.CreatedAt); err != nil {
		return Checkpoint{}, err
	}
	return cp, nil
}

func (s *Service) DeleteCheckpoint(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM checkpoints WHERE id=$1`, id)
	return err
}

// Checkpoints lists a trail's checkpoints in sort order. Clients fetch this
// once at hike start to seed the session tracker.
func (s *Service) Checkpoints(ctx context.Context, trailID string) ([]Checkpoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trail_id, name, ST_Y(location::geometry), ST_X(location::geometry),
		       is_checkable, sort_order, created_at
		FROM checkpoints WHERE trail_id=$1
		ORDER BY sort_order, created_at
	`, trailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkpoints []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.TrailID, &cp.Name, &cp.Coordinates.Lat, &cp.Coordinates.Lng,
			&cp.IsCheckable, &cp.SortOrder, &cp.CreatedAt); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}

func pointWKT(p *geo.Point) *string {
	if p == nil {
		return nil
	}
	wkt := fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
	return &wkt
}

func pointFrom(lat, lng *float64) *geo.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lng: *lng}
}

func nullableWKT(wkt string) *string {
	if wkt == "" {
		return nil
	}
	return &wkt
}
