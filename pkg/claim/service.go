// Package claim turns finished tasks into claimed ones without user action
// and propagates the results into the client caches.
package claim

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pcameron/labelagent/pkg/api"
	"github.com/pcameron/labelagent/pkg/cache"
	"github.com/pcameron/labelagent/pkg/clock"
	"github.com/pcameron/labelagent/pkg/game"
	"github.com/pcameron/labelagent/pkg/notify"
	"github.com/pcameron/labelagent/pkg/taskstate"
)

// minReactInterval bounds how often the service reacts to clock ticks, so
// coinciding state changes within one tick do not trigger redundant sweeps.
const minReactInterval = time.Second

// Backend is the slice of the API surface the service needs.
type Backend interface {
	ClaimTask(ctx context.Context, taskID string) (*game.TimedTask, error)
	ArtistsByIDs(ctx context.Context, ids []string) ([]game.Artist, error)
}

// Deps wires the service to its collaborators. All are constructed in main and
// injected, so tests can instantiate isolated instances.
type Deps struct {
	Backend         Backend
	Tasks           *cache.TaskCache
	Contracts       *cache.ListCache[game.Contract]
	ContractRecords *cache.RecordCache[game.Contract]
	Beats           *cache.ListCache[game.Beat]
	Releases        *cache.ListCache[game.Release]
	Labels          *cache.RecordCache[game.Label]
	Artists         *cache.ArtistCache
	Notify          *notify.Center
	Clock           *clock.Clock
	Offset          *clock.Offset
}

// Service watches one label's unclaimed-finished tasks and claims them.
// One instance runs per active label context; starting it for a different
// label resets its in-flight bookkeeping.
type Service struct {
	deps Deps

	mu        sync.Mutex
	labelID   string
	active    bool
	pending   map[string]struct{}
	unsub     func()
	lastReact time.Time
}

// NewService creates a stopped claiming service.
func NewService(deps Deps) *Service {
	return &Service{
		deps:    deps,
		pending: make(map[string]struct{}),
	}
}

// Start begins watching the given label. Starting again for the same label is
// a no-op; a different label stops the old subscription and resets the
// de-duplication set before subscribing anew.
func (s *Service) Start(labelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active && s.labelID == labelID {
		return
	}
	if s.active {
		s.stopLocked()
	}

	s.labelID = labelID
	s.active = true
	s.unsub = s.deps.Clock.Subscribe(s.onTick)
}

// Stop cancels the subscription and clears the de-duplication set. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.active = false
	s.labelID = ""
	s.pending = make(map[string]struct{})
	s.lastReact = time.Time{}
}

// Active reports whether the service is watching a label, and which.
func (s *Service) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labelID, s.active
}

func (s *Service) onTick(t time.Time) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	if !s.lastReact.IsZero() && t.Sub(s.lastReact) < minReactInterval {
		s.mu.Unlock()
		return
	}
	s.lastReact = t
	labelID := s.labelID
	s.mu.Unlock()

	now := s.deps.Offset.Adjusted(t)
	snapshot, ok := s.deps.Tasks.Snapshot(labelID)
	if !ok {
		return
	}
	batch := s.takeBatch(taskstate.UnclaimedFinished(snapshot, now))
	if len(batch) == 0 {
		return
	}
	go s.claimBatch(labelID, batch)
}

// takeBatch filters out tasks already being claimed and marks the rest as
// in flight. Ids are removed only when a claim fails; a successful claim
// leaves the unclaimed-finished set on its own, so no cleanup is needed.
func (s *Service) takeBatch(candidates []game.TimedTask) []game.TimedTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []game.TimedTask
	for _, t := range candidates {
		if _, inflight := s.pending[t.ID]; inflight {
			continue
		}
		s.pending[t.ID] = struct{}{}
		batch = append(batch, t)
	}
	return batch
}

type outcome struct {
	task    game.TimedTask
	claimed *game.TimedTask
	err     error
}

// claimBatch issues one claim per task concurrently, joins the outcomes, and
// only then runs the aggregated cache invalidation pass.
func (s *Service) claimBatch(labelID string, batch []game.TimedTask) {
	ctx := context.Background()

	outcomes := make(chan outcome, len(batch))
	var wg sync.WaitGroup
	for _, t := range batch {
		wg.Add(1)
		go func(t game.TimedTask) {
			defer wg.Done()
			claimed, err := s.deps.Backend.ClaimTask(ctx, t.ID)
			outcomes <- outcome{task: t, claimed: claimed, err: err}
		}(t)
	}
	wg.Wait()
	close(outcomes)

	counts := make(map[game.TaskType]int)
	touchedContracts := make(map[string]struct{})
	var hadBeats, hadPublishing, anySuccess bool

	for o := range outcomes {
		if o.err != nil {
			log.Printf("failed to claim task %s (%s): %v", o.task.ID, o.task.Name, o.err)
			s.deps.Notify.Error("Failed to claim %s: %s", o.task.Name, api.UserMessage(o.err))
			s.release(o.task.ID)
			continue
		}

		anySuccess = true
		counts[o.claimed.Type]++
		s.deps.Tasks.Merge(labelID, *o.claimed)
		s.harvestResults(ctx, o.claimed, touchedContracts)

		switch o.claimed.Type {
		case game.TaskProducingBeats:
			hadBeats = true
		case game.TaskPublishingRelease:
			hadPublishing = true
		}
	}

	if !anySuccess {
		// Nothing landed; the failed ids were released for the next tick.
		return
	}

	s.deps.Tasks.Invalidate(labelID)
	s.deps.Contracts.Invalidate(labelID)
	for id := range touchedContracts {
		s.deps.ContractRecords.Invalidate(id)
	}
	if hadBeats {
		s.deps.Beats.Invalidate(labelID)
	}
	if hadPublishing {
		s.deps.Releases.Invalidate(labelID)
	}
	// Claims move money; the bankroll is corrected by refetch only.
	s.deps.Labels.Invalidate(labelID)

	s.deps.Notify.Success("Successfully claimed: %s", summarize(counts))
}

// harvestResults applies a successful claim's typed results: discovered
// artists land in the bookmark cache and touched contracts are recorded for
// invalidation.
func (s *Service) harvestResults(ctx context.Context, task *game.TimedTask, touchedContracts map[string]struct{}) {
	if task.ContractID != "" {
		touchedContracts[task.ContractID] = struct{}{}
	}
	if task.Results == nil {
		return
	}

	if c := task.Results.Contract; c != nil && c.ContractID != "" {
		touchedContracts[c.ContractID] = struct{}{}
	}

	if sc := task.Results.Scouting; sc != nil && len(sc.DiscoveredArtistIDs) > 0 {
		artists, err := s.deps.Backend.ArtistsByIDs(ctx, sc.DiscoveredArtistIDs)
		if err != nil {
			log.Printf("failed to fetch discovered artists for task %s: %v", task.ID, err)
			s.deps.Notify.Error("Could not load the artists you scouted: %s", api.UserMessage(err))
			return
		}
		s.deps.Artists.Add(artists...)
	}
}

// release drops a task id from the de-duplication set so a failed claim can be
// retried on a later tick.
func (s *Service) release(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, taskID)
}

// summarize renders per-type claim counts in a stable order,
// e.g. "2 Scouting, 1 Contract".
func summarize(counts map[game.TaskType]int) string {
	var parts []string
	for _, t := range game.TaskTypes {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t.DisplayName()))
		}
	}
	return strings.Join(parts, ", ")
}
