package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/TornikeIarajuli/trails-sub000/internal/shared/geo"
	"github.com/TornikeIarajuli/trails-sub000/internal/verify"

	"github.com/rs/zerolog/log"
)

const (
	trackBufferCap = 500
	tickInterval   = time.Second

	// target fix cadence requested from the location provider
	fixMinInterval  = 10 * time.Second
	fixMinDistanceM = 20.0
)

var ErrSessionActive = errors.New("a hike session is already active")

var nowFn = time.Now

// Checkpoint is the slice of trail geometry the tracker needs, fetched once
// at hike start.
type Checkpoint struct {
	ID          string
	Coordinates geo.Point
	IsCheckable bool
}

// Snapshot is a derived summary of the running session. Callers persist it
// before End if they want to keep anything; the session itself is not
// durable.
type Snapshot struct {
	TrailID              string    `json:"trail_id"`
	StartTime            time.Time `json:"start_time"`
	ElapsedSeconds       int64     `json:"elapsed_seconds"`
	VisitedCheckpointIDs []string  `json:"visited_checkpoint_ids"`
	TrackPoints          []Fix     `json:"track_points"`
}

// Tracker runs at most one hike session at a time. Two event sources feed
// it while active: a one-second timer that recomputes elapsed time from the
// wall clock, and the provider's fix stream. All session mutations go
// through the mutex, so timer ticks and fixes never race.
type Tracker struct {
	provider LocationProvider

	mu             sync.Mutex
	active         bool
	trailID        string
	startTime      time.Time
	elapsedSeconds int64
	visited        map[string]struct{}
	checkpoints    []Checkpoint
	track          *TrackBuffer

	cancelWatch context.CancelFunc
	stop        chan struct{}
	loopDone    chan struct{}
}

func NewTracker(provider LocationProvider) *Tracker {
	return &Tracker{provider: provider}
}

// Start begins a session for trailID. Starting while another session is
// active is not a supported transition; the prior session must end first.
// A provider failure does not fail the session: it runs timer-only.
func (t *Tracker) Start(trailID string, checkpoints []Checkpoint) error {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return ErrSessionActive
	}
	t.active = true
	t.trailID = trailID
	t.startTime = nowFn()
	t.elapsedSeconds = 0
	t.visited = map[string]struct{}{}
	t.checkpoints = append([]Checkpoint(nil), checkpoints...)
	t.track = NewTrackBuffer(trackBufferCap)
	t.stop = make(chan struct{})
	t.loopDone = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelWatch = cancel
	stop, loopDone := t.stop, t.loopDone
	t.mu.Unlock()

	var fixes <-chan Fix
	if t.provider != nil {
		ch, err := t.provider.Watch(ctx, WatchOptions{MinInterval: fixMinInterval, MinDistanceM: fixMinDistanceM})
		if err != nil {
			log.Warn().Err(err).Str("trail_id", trailID).Msg("location watch unavailable, session runs timer-only")
		} else {
			fixes = ch
		}
	}

	go t.loop(fixes, stop, loopDone)
	return nil
}

func (t *Tracker) loop(fixes <-chan Fix, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.onTick()
		case fix, ok := <-fixes:
			if !ok {
				fixes = nil
				continue
			}
			t.HandleFix(fix)
		}
	}
}

// onTick recomputes elapsed time from the wall clock. Because it derives
// rather than accumulates, missed ticks (app suspended) self-correct on the
// next one.
func (t *Tracker) onTick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.elapsedSeconds = int64(nowFn().Sub(t.startTime).Seconds())
}

// HandleFix appends a fix to the track and marks any not-yet-visited
// checkable checkpoint within the check-in radius. Fixes arriving after End
// are dropped.
func (t *Tracker) HandleFix(fix Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = nowFn()
	}
	t.track.Append(fix)

	for _, cp := range t.checkpoints {
		if !cp.IsCheckable {
			continue
		}
		if _, seen := t.visited[cp.ID]; seen {
			continue
		}
		d := geo.DistanceM(fix.Point, cp.Coordinates)
		if res := verify.Evaluate(&d, verify.CheckinRadiusM); res.Outcome == verify.Verified {
			t.visited[cp.ID] = struct{}{}
		}
	}
}

// End stops the timer and the location watch, waits for the event loop to
// drain, then clears all session state. It is safe to call on an inactive
// tracker.
func (t *Tracker) End() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	stop, loopDone, cancel := t.stop, t.loopDone, t.cancelWatch
	t.mu.Unlock()

	cancel()
	close(stop)
	<-loopDone

	t.mu.Lock()
	t.trailID = ""
	t.startTime = time.Time{}
	t.elapsedSeconds = 0
	t.visited = nil
	t.checkpoints = nil
	t.track = nil
	t.stop = nil
	t.loopDone = nil
	t.cancelWatch = nil
	t.mu.Unlock()
}

func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) ElapsedSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedSeconds
}

// VisitedCheckpointIDs returns the checkpoints reached so far, sorted for
// stable output.
func (t *Tracker) VisitedCheckpointIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.visited))
	for id := range t.visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a copy of the session state, or ok=false when no session
// is active.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return Snapshot{}, false
	}
	ids := make([]string, 0, len(t.visited))
	for id := range t.visited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Snapshot{
		TrailID:              t.trailID,
		StartTime:            t.startTime,
		ElapsedSeconds:       t.elapsedSeconds,
		VisitedCheckpointIDs: ids,
		TrackPoints:          t.track.Fixes(),
	}, true
}
