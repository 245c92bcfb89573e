package domain

import (
	"sort"
	"strings"
)

// VisibleMember is a member as clients may see it.
type VisibleMember struct {
	ID   MemberID `json:"id"`
	Name string   `json:"name"`
	Vote Vote     `json:"vote,omitempty"`
}

// VisibleRoomState is the derived projection broadcast to clients.
// Never stored; recomputed from the Room on every publish so a
// subscriber can never diverge from the persisted record.
type VisibleRoomState struct {
	Code        RoomCode        `json:"code"`
	Members     []VisibleMember `json:"members"`
	ShowResults bool            `json:"showResults"`
}

// VisibleState is the only place a vote value may leak to clients,
// and only once the room is revealed. Before reveal a cast vote is
// redacted to the hidden marker.
func (r *Room) VisibleState() VisibleRoomState {
	state := VisibleRoomState{
		Code:        r.Code,
		Members:     make([]VisibleMember, 0, len(r.Members)),
		ShowResults: r.ShowResults,
	}
	for _, m := range r.sortedMembers() {
		vm := VisibleMember{ID: m.ID, Name: m.Name}
		switch {
		case r.ShowResults:
			vm.Vote = m.Vote
		case m.Vote != VoteAbsent:
			vm.Vote = VoteHidden
		}
		state.Members = append(state.Members, vm)
	}
	return state
}

// sortedMembers gives a stable order for projections and records.
// Names are unique ignoring case, so this is deterministic.
func (r *Room) sortedMembers() []*Member {
	out := make([]*Member, 0, len(r.Members))
	for _, m := range r.Members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
