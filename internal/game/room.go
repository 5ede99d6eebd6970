package game

import (
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/victorzsh/blackjack-server/internal/deck"
)

// Action is a turn action reported by a player
type Action string

const (
	ActionHit   Action = "hit"
	ActionStand Action = "stand"
)

// RoomError is a recoverable, room-scoped failure surfaced to the acting
// player. It never terminates the room or the process.
type RoomError struct {
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

func newRoomError(message string) *RoomError {
	return &RoomError{Message: message}
}

// Player is a seated participant. Seat order in Room.players is turn order.
type Player struct {
	ID    string
	Name  string
	Hand  []deck.Card
	Total int
	Done  bool
}

// RoundResult identifies the winner of a settled round
type RoundResult struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Total      int    `json:"total"`
}

// Update carries everything the transport fans out after a committed
// transition. Snapshots are projected under the room lock, so they can
// never expose an interleaved intermediate state.
type Update struct {
	RoomID  string
	Public  PublicView
	Private map[string]PrivateView
	Result  *RoundResult // set when a settled round produced a winner
	Empty   bool         // room has no players left; caller evicts it
}

// Room is the aggregate root for one game instance. All transitions are
// serialized by the room mutex; different rooms are fully independent.
type Room struct {
	ID   string
	Mode int // round wins required to take the match

	mu      sync.Mutex
	rng     *rand.Rand
	deck    *deck.Deck
	players []*Player
	active  bool
	turn    int
	winner  string
	wins    map[string]int
	logger  *log.Logger
}

// NewRoom creates an empty room. mode is the number of round wins that
// concludes a match.
func NewRoom(id string, mode int, rng *rand.Rand, logger *log.Logger) *Room {
	return &Room{
		ID:     id,
		Mode:   mode,
		rng:    rng,
		wins:   make(map[string]int),
		logger: logger.WithPrefix("room").With("id", id),
	}
}

// Join adds a player to the room. Re-joining with a known id is a no-op
// beyond acknowledging the join; the returned update is broadcast either way.
func (r *Room) Join(playerID, name string) *Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findPlayer(playerID) == -1 {
		r.players = append(r.players, &Player{ID: playerID, Name: name, Hand: []deck.Card{}})
		r.wins[playerID] = 0
		r.logger.Info("Player joined", "player", playerID, "name", name, "seats", len(r.players))
	}

	return r.update()
}

// Start begins the first round. It requires at least one seated player and
// an idle room.
func (r *Room) Start() (*Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil, newRoomError("already active")
	}
	if len(r.players) == 0 {
		return nil, newRoomError("need at least one player")
	}

	r.startRound()
	return r.update(), nil
}

// StartNextRound begins another round of an ongoing match. A concluded
// match rejects new rounds until RestartMatch.
func (r *Room) StartNextRound() (*Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil, newRoomError("already active")
	}
	if r.winner != "" {
		return nil, newRoomError("match already concluded")
	}

	r.startRound()
	return r.update(), nil
}

// startRound resets the table for a fresh round. The deck is rebuilt and
// fully reshuffled; no cards are dealt until players act.
func (r *Room) startRound() {
	r.deck = deck.NewShuffled(r.rng)
	r.active = true
	r.turn = 0
	r.winner = ""
	for _, p := range r.players {
		p.Hand = []deck.Card{}
		p.Total = 0
		p.Done = false
	}
	r.logger.Info("Round started", "players", len(r.players), "mode", r.Mode)
}

// RestartMatch zeroes every win counter and clears the match winner,
// leaving hands untouched.
func (r *Room) RestartMatch() (*Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil, newRoomError("game active")
	}

	for id := range r.wins {
		r.wins[id] = 0
	}
	r.winner = ""
	r.logger.Info("Match restarted")

	return r.update(), nil
}

// Apply processes a hit or stand for the acting player. Actions against an
// idle room are tolerated silently (nil update, nil error): they are stale
// events racing a disconnect or a round that just settled.
func (r *Room) Apply(playerID string, action Action) (*Update, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return nil, nil
	}

	idx := r.findPlayer(playerID)
	if idx == -1 {
		return nil, newRoomError("player not in room")
	}
	if idx != r.turn {
		return nil, newRoomError("not your turn")
	}

	player := r.players[idx]
	switch action {
	case ActionHit:
		if card, ok := r.deck.Draw(); ok {
			player.Hand = append(player.Hand, card)
		}
		player.Total = deck.Score(player.Hand)
		if deck.IsBust(player.Total) {
			player.Done = true
		}
	case ActionStand:
		player.Done = true
	default:
		return nil, newRoomError("invalid action")
	}

	r.logger.Debug("Action applied", "player", playerID, "action", action, "total", player.Total, "done", player.Done)

	if r.allDone() {
		return r.settleRound(), nil
	}

	r.turn = NextTurn(r.players, r.turn)
	return r.update(), nil
}

// Leave removes a player. The second return reports whether the room is now
// empty, in which case the caller evicts it and the update carries no
// snapshots. Removing a player mid-round repairs the turn index and
// re-checks settlement, since the leaver may have been the only one still
// acting.
func (r *Room) Leave(playerID string) (*Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findPlayer(playerID)
	if idx == -1 {
		return nil, false
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.wins, playerID)
	r.logger.Info("Player left", "player", playerID, "seats", len(r.players))

	if len(r.players) == 0 {
		r.active = false
		return &Update{RoomID: r.ID, Empty: true}, true
	}

	if r.active {
		if idx < r.turn {
			r.turn--
		} else if r.turn >= len(r.players) {
			r.turn = 0
		}
		if r.allDone() {
			return r.settleRound(), false
		}
		r.turn = NextTurn(r.players, r.turn)
	}

	return r.update(), false
}

// settleRound resolves a finished round: the highest total at or under 21
// wins, earliest seat breaking ties. Busted-only rounds have no winner.
// Reaching Mode round wins concludes the match. Caller holds the lock.
func (r *Room) settleRound() *Update {
	var best *Player
	for _, p := range r.players {
		if p.Total > 21 {
			continue
		}
		if best == nil || p.Total > best.Total {
			best = p
		}
	}

	var result *RoundResult
	if best != nil {
		r.wins[best.ID]++
		result = &RoundResult{PlayerID: best.ID, PlayerName: best.Name, Total: best.Total}
		if r.wins[best.ID] >= r.Mode {
			r.winner = best.Name
			r.logger.Info("Match concluded", "winner", best.Name, "wins", r.wins[best.ID])
		} else {
			r.logger.Info("Round settled", "winner", best.Name, "total", best.Total)
		}
	} else {
		r.logger.Info("Round settled with no winner")
	}

	r.active = false

	u := r.update()
	u.Result = result
	return u
}

// NextTurn returns the index of the first player at or after current that
// has not finished acting, scanning circularly. A player that hits without
// busting therefore keeps the turn; standing or busting passes it on. It
// returns -1 when every player is done; callers in the action path never hit
// that case because settlement is checked first.
func NextTurn(players []*Player, current int) int {
	n := len(players)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		idx := (current + i) % n
		if !players[idx].Done {
			return idx
		}
	}
	return -1
}

// allDone reports round settlement: every player stood or busted.
// Caller holds the lock.
func (r *Room) allDone() bool {
	for _, p := range r.players {
		if !p.Done && p.Total <= 21 {
			return false
		}
	}
	return true
}

func (r *Room) findPlayer(playerID string) int {
	for i, p := range r.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// update projects post-commit snapshots for every recipient. Caller holds
// the lock.
func (r *Room) update() *Update {
	private := make(map[string]PrivateView, len(r.players))
	for _, p := range r.players {
		private[p.ID] = r.projectPrivate(p)
	}
	return &Update{
		RoomID:  r.ID,
		Public:  r.projectPublic(),
		Private: private,
	}
}

// HasPlayer reports whether the player is seated in this room
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findPlayer(playerID) != -1
}

// PlayerCount returns the number of seated players
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// DeckRemaining returns the number of undrawn cards in the current deck
func (r *Room) DeckRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deck == nil {
		return 0
	}
	return r.deck.Remaining()
}
