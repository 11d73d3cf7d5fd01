package matchmaking

import (
	"sync"

	"github.com/Dosada05/arena/models"
)

// QueueSet is the membership ledger shared by the engines: an
// insertion-ordered list of waiting players per queue id, guarded by one
// mutex so "add and check threshold" is atomic. A player may be present in
// at most one queue across the whole set; a queue is deleted once emptied.
type QueueSet struct {
	mu     sync.Mutex
	queues map[string][]*models.Player
}

func NewQueueSet() *QueueSet {
	return &QueueSet{queues: make(map[string][]*models.Player)}
}

// Add appends the player to the named queue and returns the new length.
// It refuses (ok=false) if the user is already waiting anywhere in the set.
func (q *QueueSet) Add(queueID string, player *models.Player) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, players := range q.queues {
		for _, p := range players {
			if p.UserID == player.UserID {
				return 0, false
			}
		}
	}

	q.queues[queueID] = append(q.queues[queueID], player)
	return len(q.queues[queueID]), true
}

// Remove takes the user out of the named queue. Reports whether an entry
// was actually removed.
func (q *QueueSet) Remove(queueID, userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(queueID, userID)
}

// RemoveUser takes the user out of every queue in the set.
func (q *QueueSet) RemoveUser(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for queueID := range q.queues {
		q.removeLocked(queueID, userID)
	}
}

func (q *QueueSet) removeLocked(queueID, userID string) bool {
	players, ok := q.queues[queueID]
	if !ok {
		return false
	}
	for i, p := range players {
		if p.UserID == userID {
			q.queues[queueID] = append(players[:i], players[i+1:]...)
			if len(q.queues[queueID]) == 0 {
				delete(q.queues, queueID)
			}
			return true
		}
	}
	return false
}

// Take pops the first n players of the named queue in insertion order,
// deleting the queue if it drains.
func (q *QueueSet) Take(queueID string, n int) []*models.Player {
	q.mu.Lock()
	defer q.mu.Unlock()

	players, ok := q.queues[queueID]
	if !ok {
		return nil
	}
	if n > len(players) {
		n = len(players)
	}

	taken := make([]*models.Player, n)
	copy(taken, players[:n])

	rest := players[n:]
	if len(rest) == 0 {
		delete(q.queues, queueID)
	} else {
		q.queues[queueID] = append([]*models.Player(nil), rest...)
	}
	return taken
}

// Players returns a snapshot of the named queue in insertion order.
func (q *QueueSet) Players(queueID string) []*models.Player {
	q.mu.Lock()
	defer q.mu.Unlock()

	players := q.queues[queueID]
	out := make([]*models.Player, len(players))
	copy(out, players)
	return out
}

// Contains reports whether the user is waiting in any queue.
func (q *QueueSet) Contains(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, players := range q.queues {
		for _, p := range players {
			if p.UserID == userID {
				return true
			}
		}
	}
	return false
}

// Len returns the current length of the named queue.
func (q *QueueSet) Len(queueID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues[queueID])
}
