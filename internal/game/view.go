package game

import "github.com/victorzsh/blackjack-server/internal/deck"

// PlayerView is the per-player slice of a snapshot. Hands are fully
// revealed to everyone in this variant; there is no hidden-card concept.
type PlayerView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Hand  []deck.Card `json:"hand"`
	Total int         `json:"total"`
	Done  bool        `json:"isDone"`
}

// PublicView is the snapshot broadcast to every room member
type PublicView struct {
	RoomID          string         `json:"roomId"`
	Active          bool           `json:"isGameActive"`
	WinnerName      string         `json:"winnerName,omitempty"`
	CurrentPlayerID string         `json:"currentPlayerId,omitempty"`
	Mode            int            `json:"gameMode"`
	Wins            map[string]int `json:"playerWins"`
	Players         []PlayerView   `json:"players"`
}

// SelfView is the recipient's own block in a private snapshot. HiddenHand is
// always empty here and exists only to keep the envelope shape stable.
type SelfView struct {
	PlayerView
	HiddenHand []deck.Card `json:"hiddenHand"`
}

// PrivateView is the per-recipient snapshot. It carries the same information
// as the public view wrapped in a self/others envelope; the split is for
// addressing, not information hiding.
type PrivateView struct {
	RoomID          string         `json:"roomId"`
	Active          bool           `json:"isGameActive"`
	WinnerName      string         `json:"winnerName,omitempty"`
	CurrentPlayerID string         `json:"currentPlayerId,omitempty"`
	Mode            int            `json:"gameMode"`
	Wins            map[string]int `json:"playerWins"`
	Self            SelfView       `json:"self"`
	Others          []PlayerView   `json:"others"`
}

// Snapshot returns the current public view of the room
func (r *Room) Snapshot() PublicView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.projectPublic()
}

// SnapshotFor returns the private view for one player, or ok=false when the
// player is not seated in this room.
func (r *Room) SnapshotFor(playerID string) (PrivateView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.findPlayer(playerID)
	if idx == -1 {
		return PrivateView{}, false
	}
	return r.projectPrivate(r.players[idx]), true
}

// projectPublic builds the public snapshot. Caller holds the lock.
func (r *Room) projectPublic() PublicView {
	players := make([]PlayerView, len(r.players))
	for i, p := range r.players {
		players[i] = projectPlayer(p)
	}

	return PublicView{
		RoomID:          r.ID,
		Active:          r.active,
		WinnerName:      r.winner,
		CurrentPlayerID: r.currentPlayerID(),
		Mode:            r.Mode,
		Wins:            copyWins(r.wins),
		Players:         players,
	}
}

// projectPrivate builds the snapshot addressed to one player. Caller holds
// the lock.
func (r *Room) projectPrivate(self *Player) PrivateView {
	others := make([]PlayerView, 0, len(r.players)-1)
	for _, p := range r.players {
		if p.ID != self.ID {
			others = append(others, projectPlayer(p))
		}
	}

	return PrivateView{
		RoomID:          r.ID,
		Active:          r.active,
		WinnerName:      r.winner,
		CurrentPlayerID: r.currentPlayerID(),
		Mode:            r.Mode,
		Wins:            copyWins(r.wins),
		Self: SelfView{
			PlayerView: projectPlayer(self),
			HiddenHand: []deck.Card{},
		},
		Others: others,
	}
}

// currentPlayerID returns the id of the player whose turn it is, or empty
// when no round is running. Caller holds the lock.
func (r *Room) currentPlayerID() string {
	if !r.active || r.turn < 0 || r.turn >= len(r.players) {
		return ""
	}
	return r.players[r.turn].ID
}

func projectPlayer(p *Player) PlayerView {
	hand := make([]deck.Card, len(p.Hand))
	copy(hand, p.Hand)
	return PlayerView{
		ID:    p.ID,
		Name:  p.Name,
		Hand:  hand,
		Total: p.Total,
		Done:  p.Done,
	}
}

func copyWins(wins map[string]int) map[string]int {
	out := make(map[string]int, len(wins))
	for id, n := range wins {
		out[id] = n
	}
	return out
}
