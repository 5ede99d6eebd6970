package game

import (
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/victorzsh/blackjack-server/internal/randutil"
)

// DefaultMode is the match length used when a create request carries no
// recognized mode.
const DefaultMode = 3

// roomIDLength keeps room codes short enough to share by hand
const roomIDLength = 6

// Registry owns the live rooms. It is created at process start and passed to
// the transport layer; rooms come and go per the lifecycle rules, nothing is
// persisted.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	rng         *rand.Rand // seeds per-room RNGs; guarded by mu
	defaultMode int
	logger      *log.Logger
}

// NewRegistry creates an empty registry. The RNG seeds each room's private
// shuffle RNG, so a fixed seed makes whole-server runs reproducible.
// defaultMode is the match length applied to create requests that carry no
// recognized mode; an invalid defaultMode falls back to DefaultMode.
func NewRegistry(rng *rand.Rand, defaultMode int, logger *log.Logger) *Registry {
	if defaultMode != 3 && defaultMode != 5 {
		defaultMode = DefaultMode
	}
	return &Registry{
		rooms:       make(map[string]*Room),
		rng:         rng,
		defaultMode: defaultMode,
		logger:      logger.WithPrefix("registry"),
	}
}

// Create inserts a new empty room and returns it. Modes other than 3 and 5
// fall back to the registry default.
func (reg *Registry) Create(mode int) *Room {
	if mode != 3 && mode != 5 {
		mode = reg.defaultMode
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := reg.newRoomID()
	room := NewRoom(id, mode, randutil.New(reg.rng.Int64()), reg.logger)
	reg.rooms[id] = room
	reg.logger.Info("Room created", "id", id, "mode", mode, "rooms", len(reg.rooms))

	return room
}

// newRoomID generates a short id unique among live rooms. Collisions at this
// length are rare enough that a retry loop suffices. Caller holds the lock.
func (reg *Registry) newRoomID() string {
	for {
		id, err := gonanoid.New(roomIDLength)
		if err != nil {
			panic("failed to generate room id: " + err.Error())
		}
		if _, exists := reg.rooms[id]; !exists {
			return id
		}
	}
}

// Get returns the room with the given id, or nil
func (reg *Registry) Get(id string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[id]
}

// Remove evicts a room from the registry
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		reg.logger.Info("Room removed", "id", id, "rooms", len(reg.rooms))
	}
}

// Count returns the number of live rooms
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// RemovePlayer removes the player from every room containing them, evicting
// any room left empty. It returns one update per affected room; updates for
// evicted rooms carry Empty and no snapshots.
func (reg *Registry) RemovePlayer(playerID string) []*Update {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	var updates []*Update
	for _, room := range rooms {
		update, empty := room.Leave(playerID)
		if update == nil {
			continue
		}
		if empty {
			reg.Remove(room.ID)
		}
		updates = append(updates, update)
	}

	return updates
}
