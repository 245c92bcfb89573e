package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	return NewRoom("ABCDEF")
}

func TestRoom_AddMember(t *testing.T) {
	r := newTestRoom(t)

	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.Len(t, r.Members, 1)

	m := r.Members["tok-1"]
	assert.Equal(t, "Alice", m.Name)
	assert.Equal(t, VoteAbsent, m.Vote)
	assert.False(t, m.LastActivity.IsZero())
}

func TestRoom_AddMember_NameConflictIgnoresCase(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))

	err := r.AddMember("tok-2", "alice")
	assert.ErrorIs(t, err, ErrNameConflict)
	// failed join must not mutate the room
	assert.Len(t, r.Members, 1)
}

func TestRoom_RecordVote(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))

	require.NoError(t, r.RecordVote("tok-1", "5"))
	assert.Equal(t, Vote("5"), r.Members["tok-1"].Vote)

	assert.ErrorIs(t, r.RecordVote("stranger", "5"), ErrNotAMember)
}

func TestRoom_RevealIsIdempotent(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.RecordVote("tok-1", "8"))

	r.Reveal()
	r.Reveal()

	assert.True(t, r.ShowResults)
	assert.Equal(t, Vote("8"), r.Members["tok-1"].Vote)
}

func TestRoom_ResetClearsVotesKeepsMembers(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.AddMember("tok-2", "Bob"))
	require.NoError(t, r.RecordVote("tok-1", "5"))
	require.NoError(t, r.RecordVote("tok-2", VoteCoffee))
	r.Reveal()

	r.Reset()

	assert.False(t, r.ShowResults)
	assert.Len(t, r.Members, 2)
	for _, m := range r.Members {
		assert.Equal(t, VoteAbsent, m.Vote)
	}
}

func TestRoom_RemoveMember(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))

	assert.ErrorIs(t, r.RemoveMember("stranger"), ErrTargetNotFound)

	require.NoError(t, r.RemoveMember("tok-1"))
	assert.True(t, r.Empty())
}

func TestRoom_EvictInactive(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.AddMember("tok-2", "Bob"))
	r.Members["tok-1"].LastActivity = time.Now().Add(-10 * time.Minute)

	evicted := r.EvictInactive(time.Now().Add(-5 * time.Minute))

	assert.Equal(t, 1, evicted)
	assert.NotContains(t, r.Members, MemberID("tok-1"))
	assert.Contains(t, r.Members, MemberID("tok-2"))
}

func TestRoom_VisibleState_HiddenUntilReveal(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.AddMember("tok-2", "Bob"))
	require.NoError(t, r.RecordVote("tok-1", "5"))

	state := r.VisibleState()
	require.Len(t, state.Members, 2)
	assert.False(t, state.ShowResults)
	// Alice voted but the value must stay redacted
	assert.Equal(t, VoteHidden, state.Members[0].Vote)
	// Bob has not voted at all
	assert.Equal(t, VoteAbsent, state.Members[1].Vote)
}

func TestRoom_VisibleState_RevealedShowsRealVotes(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.AddMember("tok-2", "Bob"))
	require.NoError(t, r.RecordVote("tok-1", "5"))
	require.NoError(t, r.RecordVote("tok-2", "8"))
	r.Reveal()

	state := r.VisibleState()
	require.Len(t, state.Members, 2)
	assert.Equal(t, "Alice", state.Members[0].Name)
	assert.Equal(t, Vote("5"), state.Members[0].Vote)
	assert.Equal(t, "Bob", state.Members[1].Name)
	assert.Equal(t, Vote("8"), state.Members[1].Vote)

	sum := Summarize(state)
	assert.InDelta(t, 6.5, sum.Average, 0.0001)
}

func TestRoom_JSONRoundTrip(t *testing.T) {
	r := newTestRoom(t)
	require.NoError(t, r.AddMember("tok-1", "Alice"))
	require.NoError(t, r.RecordVote("tok-1", "13"))
	r.Reveal()

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var back Room
	require.NoError(t, json.Unmarshal(b, &back))

	assert.Equal(t, r.Code, back.Code)
	assert.True(t, back.ShowResults)
	require.Contains(t, back.Members, MemberID("tok-1"))
	assert.Equal(t, Vote("13"), back.Members["tok-1"].Vote)
	assert.Equal(t, "Alice", back.Members["tok-1"].Name)
}
