package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/arena/models"
)

var errCreateGameDown = errors.New("game backend unavailable")

// fakeNotifier records every notification per recipient.
type fakeNotifier struct {
	mu       sync.Mutex
	received map[string][]models.Notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{received: make(map[string][]models.Notification)}
}

func (f *fakeNotifier) Notify(userID string, n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received[userID] = append(f.received[userID], n)
}

func (f *fakeNotifier) NotifyAll(userIDs []string, n models.Notification) {
	for _, id := range userIDs {
		f.Notify(id, n)
	}
}

func (f *fakeNotifier) notices(userID string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.received[userID]))
	copy(out, f.received[userID])
	return out
}

func (f *fakeNotifier) countOfType(userID, noticeType string) int {
	count := 0
	for _, n := range f.notices(userID) {
		if n.Type == noticeType {
			count++
		}
	}
	return count
}

func (f *fakeNotifier) firstOfType(userID, noticeType string) (models.Notification, bool) {
	for _, n := range f.notices(userID) {
		if n.Type == noticeType {
			return n, true
		}
	}
	return models.Notification{}, false
}

// fakeGameStore issues sequential game ids; set fail to simulate the game
// backend refusing creation.
type fakeGameStore struct {
	mu      sync.Mutex
	fail    bool
	next    int
	created []string
	results map[string]string
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{results: make(map[string]string)}
}

func (f *fakeGameStore) CreateGame(_ context.Context, p1, p2 string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errCreateGameDown
	}
	f.next++
	gameID := fmt.Sprintf("game-%d", f.next)
	f.created = append(f.created, gameID)
	return gameID, nil
}

func (f *fakeGameStore) RecordResult(_ context.Context, gameID, winnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[gameID] = winnerID
	return nil
}

func (f *fakeGameStore) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeQueueStore serves queue variants from a static map.
type fakeQueueStore struct {
	variants map[string]string
}

func (f *fakeQueueStore) QueueVariant(_ context.Context, queueID string) (string, error) {
	variant, ok := f.variants[queueID]
	if !ok {
		return "", errors.New("queue not found")
	}
	return variant, nil
}

// fakeArchiver records archived summaries.
type fakeArchiver struct {
	mu        sync.Mutex
	summaries []*models.TournamentSummary
}

func (f *fakeArchiver) ArchiveTournament(_ context.Context, summary *models.TournamentSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeArchiver) archived() []*models.TournamentSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.TournamentSummary, len(f.summaries))
	copy(out, f.summaries)
	return out
}
