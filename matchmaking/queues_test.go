package matchmaking

import (
	"testing"
	"time"

	"github.com/Dosada05/arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlayer(userID string, elo int) *models.Player {
	return &models.Player{UserID: userID, Elo: elo, JoinedAt: time.Now()}
}

func TestQueueSetAddAndCount(t *testing.T) {
	q := NewQueueSet()

	count, ok := q.Add("q1", testPlayer("alice", 1000))
	require.True(t, ok)
	assert.Equal(t, 1, count)

	count, ok = q.Add("q1", testPlayer("bob", 1100))
	require.True(t, ok)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, q.Len("q1"))
}

func TestQueueSetRefusesDoubleMembership(t *testing.T) {
	q := NewQueueSet()

	_, ok := q.Add("q1", testPlayer("alice", 1000))
	require.True(t, ok)

	// Same queue or a different one: a waiting player may not appear in
	// two entries anywhere in the set.
	_, ok = q.Add("q1", testPlayer("alice", 1000))
	assert.False(t, ok)
	_, ok = q.Add("q2", testPlayer("alice", 1000))
	assert.False(t, ok)
}

func TestQueueSetPreservesInsertionOrder(t *testing.T) {
	q := NewQueueSet()
	for _, id := range []string{"c", "a", "b"} {
		_, ok := q.Add("q1", testPlayer(id, 1000))
		require.True(t, ok)
	}

	players := q.Players("q1")
	require.Len(t, players, 3)
	assert.Equal(t, "c", players[0].UserID)
	assert.Equal(t, "a", players[1].UserID)
	assert.Equal(t, "b", players[2].UserID)
}

func TestQueueSetRemoveDeletesEmptyQueue(t *testing.T) {
	q := NewQueueSet()
	q.Add("q1", testPlayer("alice", 1000))

	assert.True(t, q.Remove("q1", "alice"))
	assert.False(t, q.Remove("q1", "alice"))
	assert.Equal(t, 0, q.Len("q1"))
	assert.False(t, q.Contains("alice"))
}

func TestQueueSetTake(t *testing.T) {
	q := NewQueueSet()
	for _, id := range []string{"a", "b", "c"} {
		q.Add("q1", testPlayer(id, 1000))
	}

	taken := q.Take("q1", 2)
	require.Len(t, taken, 2)
	assert.Equal(t, "a", taken[0].UserID)
	assert.Equal(t, "b", taken[1].UserID)
	assert.Equal(t, 1, q.Len("q1"))

	taken = q.Take("q1", 5)
	require.Len(t, taken, 1)
	assert.Equal(t, "c", taken[0].UserID)
	assert.Equal(t, 0, q.Len("q1"))
}

func TestQueueSetRemoveUserEverywhere(t *testing.T) {
	q := NewQueueSet()
	q.Add("q1", testPlayer("alice", 1000))
	q.Add("q2", testPlayer("bob", 1000))

	q.RemoveUser("alice")
	assert.False(t, q.Contains("alice"))
	assert.True(t, q.Contains("bob"))
}
