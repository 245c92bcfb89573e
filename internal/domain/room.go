// Package domain holds the room aggregate and its pure transitions.
// Nothing here touches storage, transport or clocks other than time.Now
// stamps on mutation; a Room is loaded, mutated and persisted elsewhere.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Room is a single estimation session.
type Room struct {
	Code        RoomCode
	Members     map[MemberID]*Member
	ShowResults bool
	CreatedAt   time.Time
}

func NewRoom(code RoomCode) *Room {
	return &Room{
		Code:      code,
		Members:   make(map[MemberID]*Member),
		CreatedAt: time.Now().UTC(),
	}
}

// AddMember inserts a new member with no vote yet.
// Display names are unique within a room ignoring case.
func (r *Room) AddMember(id MemberID, name string) error {
	for _, m := range r.Members {
		if m.ID != id && strings.EqualFold(m.Name, name) {
			return ErrNameConflict
		}
	}
	r.Members[id] = &Member{
		ID:           id,
		Name:         name,
		Vote:         VoteAbsent,
		LastActivity: time.Now().UTC(),
	}
	return nil
}

// RecordVote sets the member's vote and refreshes its activity stamp.
func (r *Room) RecordVote(id MemberID, v Vote) error {
	m, ok := r.Members[id]
	if !ok {
		return ErrNotAMember
	}
	m.Vote = v
	m.LastActivity = time.Now().UTC()
	return nil
}

// Reveal makes all votes visible. Revealing twice is a no-op.
func (r *Room) Reveal() {
	r.ShowResults = true
}

// Reset hides results and clears every vote.
// Membership and activity stamps are untouched.
func (r *Room) Reset() {
	r.ShowResults = false
	for _, m := range r.Members {
		m.Vote = VoteAbsent
	}
}

func (r *Room) RemoveMember(id MemberID) error {
	if _, ok := r.Members[id]; !ok {
		return ErrTargetNotFound
	}
	delete(r.Members, id)
	return nil
}

// Touch refreshes a member's activity stamp. Reports whether the
// member exists.
func (r *Room) Touch(id MemberID) bool {
	m, ok := r.Members[id]
	if !ok {
		return false
	}
	m.LastActivity = time.Now().UTC()
	return true
}

// EvictInactive removes members whose last activity is at or before
// cutoff and returns how many were removed.
func (r *Room) EvictInactive(cutoff time.Time) int {
	evicted := 0
	for id, m := range r.Members {
		if !m.LastActivity.After(cutoff) {
			delete(r.Members, id)
			evicted++
		}
	}
	return evicted
}

func (r *Room) Empty() bool {
	return len(r.Members) == 0
}

// roomRecord is the persisted layout: the member map flattens to an
// explicit list so the record survives serialization round-trips.
type roomRecord struct {
	Code        RoomCode  `json:"code"`
	Members     []*Member `json:"members"`
	ShowResults bool      `json:"showResults"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *Room) MarshalJSON() ([]byte, error) {
	rec := roomRecord{
		Code:        r.Code,
		Members:     make([]*Member, 0, len(r.Members)),
		ShowResults: r.ShowResults,
		CreatedAt:   r.CreatedAt,
	}
	for _, m := range r.sortedMembers() {
		rec.Members = append(rec.Members, m)
	}
	return json.Marshal(rec)
}

func (r *Room) UnmarshalJSON(data []byte) error {
	var rec roomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	r.Code = rec.Code
	r.ShowResults = rec.ShowResults
	r.CreatedAt = rec.CreatedAt
	r.Members = make(map[MemberID]*Member, len(rec.Members))
	for _, m := range rec.Members {
		r.Members[m.ID] = m
	}
	return nil
}
