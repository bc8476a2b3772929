package completion

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/TornikeIarajuli/trails-sub000/internal/db"
	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"
	"github.com/TornikeIarajuli/trails-sub000/internal/stream"
	"github.com/TornikeIarajuli/trails-sub000/internal/verify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// Notifier receives post-commit side effects for approved completions:
// profile counter increment and badge re-evaluation. Failures are logged,
// never propagated back to the submission.
type Notifier interface {
	CompletionApproved(ctx context.Context, userID, trailID string) error
}

type Service struct {
	db       db.Querier
	hub      *stream.Hub
	notifier Notifier
}

func NewService(q db.Querier, hub *stream.Hub, notifier Notifier) *Service {
	return &Service{db: q, hub: hub, notifier: notifier}
}

// Submit creates a trail completion for (userID, trailID). When the trail
// has a recorded endpoint and the proof photo is within the completion
// radius the record is created approved; otherwise it is created pending
// and waits for manual review. A missing endpoint or a failed distance
// computation never auto-approves.
func (s *Service) Submit(ctx context.Context, userID, trailID string, photoLocation geo.Point, proofPhotoURL string) (Completion, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM completions WHERE user_id=$1 AND trail_id=$2)
	`, userID, trailID).Scan(&exists); err != nil {
		return Completion{}, err
	}
	if exists {
		return Completion{}, ErrDuplicateSubmission
	}

	var endLat, endLng *float64
	err := s.db.QueryRow(ctx, `
		SELECT ST_Y(end_point::geometry), ST_X(end_point::geometry)
		FROM trails WHERE id=$1
	`, trailID).Scan(&endLat, &endLng)
	if errors.Is(err, pgx.ErrNoRows) {
		return Completion{}, ErrTrailNotFound
	}
	if err != nil {
		return Completion{}, err
	}

	res := s.measure(photoLocation, endLat, endLng, verify.CompletionRadiusM)

	comp := Completion{
		ID:            uuid.NewString(),
		UserID:        userID,
		TrailID:       trailID,
		Status:        StatusPending,
		PhotoLocation: photoLocation,
		ProofPhotoURL: proofPhotoURL,
		GPSVerified:   res.Outcome == verify.Verified,
		DistanceM:     res.DistanceM,
		CompletedAt:   time.Now(),
	}
	if res.Outcome == verify.Verified {
		comp.Status = StatusApproved
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO completions (id, user_id, trail_id, status, photo_location, proof_photo_url, completed_at)
		VALUES ($1,$2,$3,$4, ST_SetSRID(ST_MakePoint($5,$6), 4326)::geography, $7, $8)
		RETURNING created_at
	`, comp.ID, comp.UserID, comp.TrailID, string(comp.Status),
		comp.PhotoLocation.Lng, comp.PhotoLocation.Lat, comp.ProofPhotoURL, comp.CompletedAt)
	if err := row.Scan(&comp.CreatedAt); err != nil {
		// the (user_id, trail_id) unique index is the authoritative guard;
		// the pre-check above is only a fast path
		if isUniqueViolation(err) {
			return Completion{}, ErrDuplicateSubmission
		}
		return Completion{}, err
	}

	if comp.Status == StatusApproved {
		s.emitApproved(comp)
	}
	return comp, nil
}

// Review transitions a pending completion to approved or rejected. The
// transition is guarded in SQL so a completion can only be reviewed once;
// terminal states never re-open.
func (s *Service) Review(ctx context.Context, completionID string, status Status, note string) (Completion, error) {
	if status != StatusApproved && status != StatusRejected {
		return Completion{}, errors.New("review status must be approved or rejected")
	}

	row := s.db.QueryRow(ctx, `
		UPDATE completions
		SET status=$2, reviewer_note=NULLIF($3, '')
		WHERE id=$1 AND status='pending'
		RETURNING id, user_id, trail_id, status,
		          ST_Y(photo_location::geometry), ST_X(photo_location::geometry),
		          proof_photo_url, COALESCE(reviewer_note, ''), completed_at, created_at
	`, completionID, string(status), note)

	var comp Completion
	err := row.Scan(&comp.ID, &comp.UserID, &comp.TrailID, &comp.Status,
		&comp.PhotoLocation.Lat, &comp.PhotoLocation.Lng,
		&comp.ProofPhotoURL, &comp.ReviewerNote, &comp.CompletedAt, &comp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := s.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM completions WHERE id=$1)
		`, completionID).Scan(&exists); checkErr != nil {
			return Completion{}, checkErr
		}
		if exists {
			return Completion{}, ErrAlreadyReviewed
		}
		return Completion{}, ErrCompletionNotFound
	}
	if err != nil {
		return Completion{}, err
	}

	if comp.Status == StatusApproved {
		s.emitApproved(comp)
	}
	return comp, nil
}

// SubmitCheckin creates a checkpoint completion. Unlike trail completions
// there is no pending state: the proximity check is a precondition for the
// record to exist at all.
func (s *Service) SubmitCheckin(ctx context.Context, userID, checkpointID string, photoLocation geo.Point, proofPhotoURL string) (CheckpointCompletion, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM checkpoint_completions WHERE user_id=$1 AND checkpoint_id=$2)
	`, userID, checkpointID).Scan(&exists); err != nil {
		return CheckpointCompletion{}, err
	}
	if exists {
		return CheckpointCompletion{}, ErrDuplicateSubmission
	}

	var cpLat, cpLng float64
	var checkable bool
	err := s.db.QueryRow(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry), is_checkable
		FROM checkpoints WHERE id=$1
	`, checkpointID).Scan(&cpLat, &cpLng, &checkable)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckpointCompletion{}, ErrCheckpointNotFound
	}
	if err != nil {
		return CheckpointCompletion{}, err
	}
	if !checkable {
		return CheckpointCompletion{}, ErrNotCheckable
	}

	res := s.measure(photoLocation, &cpLat, &cpLng, verify.CheckinRadiusM)
	switch res.Outcome {
	case verify.Unknown:
		return CheckpointCompletion{}, ErrDistanceUnavailable
	case verify.TooFar:
		return CheckpointCompletion{}, &TooFarError{DistanceM: *res.DistanceM}
	}

	cc := CheckpointCompletion{
		ID:            uuid.NewString(),
		UserID:        userID,
		CheckpointID:  checkpointID,
		PhotoLocation: photoLocation,
		ProofPhotoURL: proofPhotoURL,
		DistanceM:     *res.DistanceM,
		CompletedAt:   time.Now(),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO checkpoint_completions (id, user_id, checkpoint_id, photo_location, proof_photo_url, completed_at)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography, $6, $7)
		RETURNING completed_at
	`, cc.ID, cc.UserID, cc.CheckpointID,
		cc.PhotoLocation.Lng, cc.PhotoLocation.Lat, cc.ProofPhotoURL, cc.CompletedAt)
	if err := row.Scan(&cc.CompletedAt); err != nil {
		if isUniqueViolation(err) {
			return CheckpointCompletion{}, ErrDuplicateSubmission
		}
		return CheckpointCompletion{}, err
	}
	return cc, nil
}

// ListForUser returns a user's trail completions, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Completion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, trail_id, status,
		       ST_Y(photo_location::geometry), ST_X(photo_location::geometry),
		       proof_photo_url, COALESCE(reviewer_note, ''), completed_at, created_at
		FROM completions WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompletions(rows)
}

// PendingReviews returns the manual review queue, oldest first.
func (s *Service) PendingReviews(ctx context.Context) ([]Completion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, trail_id, status,
		       ST_Y(photo_location::geometry), ST_X(photo_location::geometry),
		       proof_photo_url, COALESCE(reviewer_note, ''), completed_at, created_at
		FROM completions WHERE status='pending'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompletions(rows)
}

// measure computes the proof-to-reference distance and evaluates it. A nil
// reference or a NaN result degrades to Unknown rather than failing the
// submission.
func (s *Service) measure(photo geo.Point, refLat, refLng *float64, thresholdM float64) verify.Result {
	var measured *float64
	if refLat != nil && refLng != nil {
		d := geo.DistanceM(photo, geo.Point{Lat: *refLat, Lng: *refLng})
		if math.IsNaN(d) {
			log.Warn().
				Float64("photo_lat", photo.Lat).
				Float64("photo_lng", photo.Lng).
				Msg("distance computation failed, treating as unknown")
		} else {
			measured = &d
		}
	}
	return verify.Evaluate(measured, thresholdM)
}

func (s *Service) emitApproved(comp Completion) {
	if s.hub != nil {
		payload, _ := json.Marshal(approvedEvent{
			Type:         "completion_approved",
			CompletionID: comp.ID,
			TrailID:      comp.TrailID,
		})
		s.hub.Broadcast(comp.UserID, payload)
	}
	if s.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.notifier.CompletionApproved(ctx, comp.UserID, comp.TrailID); err != nil {
				log.Warn().Err(err).
					Str("user_id", comp.UserID).
					Str("trail_id", comp.TrailID).
					Msg("completion side effects failed")
			}
		}()
	}
}

type approvedEvent struct {
	Type         string `json:"type"`
	CompletionID string `json:"completion_id"`
	TrailID      string `json:"trail_id"`
}

func scanCompletions(rows pgx.Rows) ([]Completion, error) {
	var completions []Completion
	for rows.Next() {
		var comp Completion
		if err := rows.Scan(&comp.ID, &comp.UserID, &comp.TrailID, &comp.Status,
			&comp.PhotoLocation.Lat, &comp.PhotoLocation.Lng,
			&comp.ProofPhotoURL, &comp.ReviewerNote, &comp.CompletedAt, &comp.CreatedAt); err != nil {
			return nil, err
		}
		completions = append(completions, comp)
	}
	return completions, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
