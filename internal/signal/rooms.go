package signal

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/openrooms/relay/internal/identity"
)

type memberSet map[identity.ID]struct{}

// Rooms is the room membership table: room id to the set of participant
// identities currently joined. Rooms are created lazily on first join and an
// entry is deleted the moment its set becomes empty, so the table never
// holds an empty-but-present room.
type Rooms struct {
	mu      sync.RWMutex
	members map[int64]memberSet
}

// NewRooms returns an empty membership table.
func NewRooms() *Rooms {
	return &Rooms{members: make(map[int64]memberSet)}
}

// Join adds id to the room's member set, creating the set if absent.
// Idempotent.
func (r *Rooms) Join(roomID int64, id identity.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[roomID]
	if !ok {
		set = make(memberSet)
		r.members[roomID] = set
	}
	set[id] = struct{}{}
}

// Leave removes id from the room's member set. Idempotent; deletes the room
// entry when the set becomes empty.
func (r *Rooms) Leave(roomID int64, id identity.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(roomID, id)
}

func (r *Rooms) leaveLocked(roomID int64, id identity.ID) {
	set, ok := r.members[roomID]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.members, roomID)
	}
}

// MembersOf returns the room's member identities in a stable order:
// registered users by ascending id, then guests by tag. Unknown rooms yield
// an empty slice, never an error.
func (r *Rooms) MembersOf(roomID int64) []identity.ID {
	r.mu.RLock()
	set := r.members[roomID]
	ids := lo.Keys(set)
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.IsGuest() != b.IsGuest() {
			return !a.IsGuest()
		}
		if ua, ok := a.UserID(); ok {
			ub, _ := b.UserID()
			return ua < ub
		}
		return a.String() < b.String()
	})
	return ids
}

// Contains reports whether the room currently exists in the table.
func (r *Rooms) Contains(roomID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[roomID]
	return ok
}

// Purge removes id from every room it belongs to and returns the ids of the
// affected rooms. Rooms left empty are deleted. Used on disconnect.
func (r *Rooms) Purge(id identity.ID) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []int64
	for roomID, set := range r.members {
		if _, ok := set[id]; !ok {
			continue
		}
		affected = append(affected, roomID)
		r.leaveLocked(roomID, id)
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	return affected
}

// Len reports the number of rooms with at least one member.
func (r *Rooms) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members)
}
