package profile

import (
	"context"
	"errors"

	"github.com/TornikeIarajuli/trails-sub000/internal/db"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// CompletionApproved increments the user's completed-trail counter and
// re-evaluates badges. It implements completion.Notifier and runs after the
// completion record is committed.
func (s *Service) CompletionApproved(ctx context.Context, userID, trailID string) error {
	count, err := s.incrementCompleted(ctx, userID)
	if err != nil {
		return err
	}
	_, err = s.EvaluateBadges(ctx, userID, count)
	return err
}

func (s *Service) incrementCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		INSERT INTO user_stats (user_id, completed_trails)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET completed_trails = user_stats.completed_trails + 1
		RETURNING completed_trails
	`, userID).Scan(&count)
	return count, err
}

// EvaluateBadges awards every badge whose threshold the completion count
// now meets and returns only the newly earned ones. Already-held badges are
// skipped by the unique constraint.
func (s *Service) EvaluateBadges(ctx context.Context, userID string, completedTrails int) ([]Badge, error) {
	rows, err := s.db.Query(ctx, `
		WITH earned AS (
			INSERT INTO user_badges (user_id, badge_id)
			SELECT $1, id FROM badges WHERE min_completions <= $2
			ON CONFLICT (user_id, badge_id) DO NOTHING
			RETURNING badge_id
		)
		SELECT b.id, b.name, b.description, b.min_completions
		FROM badges b JOIN earned e ON e.badge_id = b.id
	`, userID, completedTrails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earned []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.MinCompletions); err != nil {
			return nil, err
		}
		earned = append(earned, b)
	}
	return earned, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	stats := Stats{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(completed_trails, 0)
		FROM user_stats WHERE user_id=$1
	`, userID).Scan(&stats.CompletedTrails)
	if errors.Is(err, pgx.ErrNoRows) {
		return stats, nil
	}
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) Badges(ctx context.Context, userID string) ([]Badge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.name, b.description, b.min_completions, ub.earned_at
		FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id=$1
		ORDER BY ub.earned_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.MinCompletions, &b.EarnedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, nil
}
