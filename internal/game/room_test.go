package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorzsh/blackjack-server/internal/deck"
	"github.com/victorzsh/blackjack-server/internal/randutil"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestRoom(t *testing.T, mode int) *Room {
	t.Helper()
	return NewRoom("test01", mode, randutil.New(1), testLogger())
}

// hitUntilDone plays hits for the player until they bust. The cap guards
// against a broken scorer looping forever.
func hitUntilDone(t *testing.T, room *Room, playerID string) *Update {
	t.Helper()

	var last *Update
	for i := 0; i < 30; i++ {
		update, err := room.Apply(playerID, ActionHit)
		require.NoError(t, err)
		last = update

		view, ok := room.SnapshotFor(playerID)
		if !ok {
			// player may have been projected out after settlement; fall back
			break
		}
		if view.Self.Done {
			return last
		}
	}
	require.NotNil(t, last, "player never finished acting")
	return last
}

func playerView(t *testing.T, room *Room, playerID string) PlayerView {
	t.Helper()
	for _, p := range room.Snapshot().Players {
		if p.ID == playerID {
			return p
		}
	}
	t.Fatalf("player %s not in snapshot", playerID)
	return PlayerView{}
}

func TestJoinIsIdempotent(t *testing.T) {
	room := newTestRoom(t, 3)

	room.Join("p1", "Alice")
	update := room.Join("p1", "Alice")

	assert.Len(t, update.Public.Players, 1)
	assert.Equal(t, 0, update.Public.Wins["p1"])
	assert.Equal(t, 1, room.PlayerCount())
}

func TestStartRequiresAtLeastOnePlayer(t *testing.T) {
	room := newTestRoom(t, 3)

	_, err := room.Start()
	require.Error(t, err)
	assert.Equal(t, "need at least one player", err.Error())
}

func TestStartWhileActiveRejected(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Start()
	require.Error(t, err)
	assert.Equal(t, "already active", err.Error())

	_, err = room.StartNextRound()
	require.Error(t, err)
	assert.Equal(t, "already active", err.Error())
}

func TestStartResetsRoundState(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")

	// Dirty the table with a full round first
	_, err := room.Start()
	require.NoError(t, err)
	_, err = room.Apply("p1", ActionHit)
	require.NoError(t, err)
	_, err = room.Apply("p1", ActionStand)
	require.NoError(t, err)
	_, err = room.Apply("p2", ActionStand)
	require.NoError(t, err)
	require.False(t, room.Snapshot().Active)

	update, err := room.StartNextRound()
	require.NoError(t, err)

	assert.Equal(t, 52, room.DeckRemaining())
	assert.True(t, update.Public.Active)
	assert.Equal(t, "p1", update.Public.CurrentPlayerID)
	for _, p := range update.Public.Players {
		assert.Empty(t, p.Hand)
		assert.Zero(t, p.Total)
		assert.False(t, p.Done)
	}
}

func TestActionBeforeStartIsSilent(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	update, err := room.Apply("p1", ActionHit)
	assert.NoError(t, err)
	assert.Nil(t, update)
}

func TestActionUnknownPlayerRejected(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("ghost", ActionHit)
	require.Error(t, err)
	assert.Equal(t, "player not in room", err.Error())
}

func TestActionOutOfTurnRejected(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("p2", ActionHit)
	require.Error(t, err)
	assert.Equal(t, "not your turn", err.Error())

	var roomErr *RoomError
	assert.ErrorAs(t, err, &roomErr)
}

func TestInvalidActionKindRejected(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("p1", Action("split"))
	require.Error(t, err)
	assert.Equal(t, "invalid action", err.Error())
}

func TestHitDrawsOneCardAndKeepsTurn(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	update, err := room.Apply("p1", ActionHit)
	require.NoError(t, err)

	p1 := playerView(t, room, "p1")
	assert.Len(t, p1.Hand, 1)
	assert.Equal(t, deck.Score(p1.Hand), p1.Total)
	assert.Equal(t, 51, room.DeckRemaining())

	// A single card can't bust, so the turn stays with the hitter
	assert.Equal(t, "p1", update.Public.CurrentPlayerID)
}

func TestStandPassesTurn(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	update, err := room.Apply("p1", ActionStand)
	require.NoError(t, err)

	assert.Equal(t, "p2", update.Public.CurrentPlayerID)
	assert.True(t, playerView(t, room, "p1").Done)
}

func TestSettlementTieBreakEarliestSeat(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("p1", ActionStand)
	require.NoError(t, err)
	update, err := room.Apply("p2", ActionStand)
	require.NoError(t, err)

	// Both stood on zero; the earliest seat takes the tie
	require.NotNil(t, update.Result)
	assert.Equal(t, "p1", update.Result.PlayerID)
	assert.Equal(t, "Alice", update.Result.PlayerName)
	assert.Equal(t, 1, update.Public.Wins["p1"])
	assert.Equal(t, 0, update.Public.Wins["p2"])
	assert.False(t, update.Public.Active)
	assert.Empty(t, update.Public.WinnerName)
}

func TestHigherTotalWinsRound(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("p1", ActionHit)
	require.NoError(t, err)
	_, err = room.Apply("p1", ActionStand)
	require.NoError(t, err)
	update, err := room.Apply("p2", ActionStand)
	require.NoError(t, err)

	require.NotNil(t, update.Result)
	assert.Equal(t, "p1", update.Result.PlayerID)
	assert.Greater(t, update.Result.Total, 0)
}

func TestBustedPlayerCannotWin(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	hitUntilDone(t, room, "p1")
	p1 := playerView(t, room, "p1")
	require.Greater(t, p1.Total, 21, "hitting until done must bust")

	update, err := room.Apply("p2", ActionStand)
	require.NoError(t, err)

	require.NotNil(t, update.Result)
	assert.Equal(t, "p2", update.Result.PlayerID)
}

func TestAllBustedRoundHasNoWinner(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	_, err := room.Start()
	require.NoError(t, err)

	update := hitUntilDone(t, room, "p1")

	require.NotNil(t, update)
	assert.Nil(t, update.Result)
	assert.False(t, update.Public.Active)
	assert.Equal(t, 0, update.Public.Wins["p1"])
}

func TestMatchConcludesAtModeWins(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	for i := 1; i <= 3; i++ {
		var err error
		if i == 1 {
			_, err = room.Start()
		} else {
			_, err = room.StartNextRound()
		}
		require.NoError(t, err)

		update, err := room.Apply("p1", ActionStand)
		require.NoError(t, err)
		require.NotNil(t, update.Result)
		assert.Equal(t, i, update.Public.Wins["p1"])
	}

	view := room.Snapshot()
	assert.Equal(t, "Alice", view.WinnerName)
	assert.False(t, view.Active)

	_, err := room.StartNextRound()
	require.Error(t, err)
	assert.Equal(t, "match already concluded", err.Error())
}

func TestRestartMatchResetsScore(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	for i := 0; i < 3; i++ {
		if i == 0 {
			_, _ = room.Start()
		} else {
			_, _ = room.StartNextRound()
		}
		_, err := room.Apply("p1", ActionStand)
		require.NoError(t, err)
	}
	require.Equal(t, "Alice", room.Snapshot().WinnerName)

	update, err := room.RestartMatch()
	require.NoError(t, err)

	assert.Empty(t, update.Public.WinnerName)
	assert.Equal(t, 0, update.Public.Wins["p1"])

	_, err = room.StartNextRound()
	assert.NoError(t, err)
}

func TestRestartMatchWhileActiveRejected(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.RestartMatch()
	require.Error(t, err)
	assert.Equal(t, "game active", err.Error())
}

func TestLeaveRepairsTurnIndex(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	room.Join("p3", "Cara")
	_, err := room.Start()
	require.NoError(t, err)

	// The acting player leaves; the seat that slid into their index acts next
	update, empty := room.Leave("p1")
	require.NotNil(t, update)
	assert.False(t, empty)
	assert.Equal(t, "p2", update.Public.CurrentPlayerID)

	// A seat before the acting player leaves; the index follows the player
	_, err = room.Apply("p2", ActionStand)
	require.NoError(t, err)
	update, _ = room.Leave("p2")
	require.NotNil(t, update)
	assert.Equal(t, "p3", update.Public.CurrentPlayerID)
}

func TestLeaveOfLastPendingPlayerSettlesRound(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")
	room.Join("p2", "Bob")
	_, err := room.Start()
	require.NoError(t, err)

	_, err = room.Apply("p1", ActionStand)
	require.NoError(t, err)

	update, empty := room.Leave("p2")
	require.NotNil(t, update)
	assert.False(t, empty)
	require.NotNil(t, update.Result)
	assert.Equal(t, "p1", update.Result.PlayerID)
	assert.False(t, update.Public.Active)
}

func TestLeaveUnknownPlayerIsSilent(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	update, empty := room.Leave("ghost")
	assert.Nil(t, update)
	assert.False(t, empty)
}

func TestLeaveLastPlayerEmptiesRoom(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p1", "Alice")

	update, empty := room.Leave("p1")
	require.NotNil(t, update)
	assert.True(t, empty)
	assert.True(t, update.Empty)
}

func TestNextTurn(t *testing.T) {
	players := []*Player{
		{ID: "a"},
		{ID: "b", Done: true},
		{ID: "c"},
	}

	assert.Equal(t, 0, NextTurn(players, 0), "not-done player keeps the turn")
	assert.Equal(t, 2, NextTurn(players, 1), "done player passes to the next eligible seat")
	assert.Equal(t, 2, NextTurn(players, 2))

	players[0].Done = true
	players[2].Done = true
	assert.Equal(t, -1, NextTurn(players, 0), "no eligible player")
	assert.Equal(t, -1, NextTurn(nil, 0))
}

// TestTwoPlayerRound walks the full example flow: mode 3, two joins, start,
// P0 hits once and stands, P1 hits until busting, exactly one round result
// fires and the standing player takes the round.
func TestTwoPlayerRound(t *testing.T) {
	room := newTestRoom(t, 3)
	room.Join("p0", "Alice")
	room.Join("p1", "Bob")

	update, err := room.Start()
	require.NoError(t, err)
	assert.Equal(t, 52, room.DeckRemaining())
	for _, p := range update.Public.Players {
		assert.Empty(t, p.Hand)
	}

	_, err = room.Apply("p0", ActionHit)
	require.NoError(t, err)
	p0 := playerView(t, room, "p0")
	require.Len(t, p0.Hand, 1)
	assert.Equal(t, deck.Score(p0.Hand), p0.Total)

	_, err = room.Apply("p0", ActionStand)
	require.NoError(t, err)

	final := hitUntilDone(t, room, "p1")
	require.NotNil(t, final.Result)
	assert.Equal(t, "p0", final.Result.PlayerID)
	assert.Equal(t, 1, final.Public.Wins["p0"])
	assert.Equal(t, 0, final.Public.Wins["p1"])
	assert.False(t, final.Public.Active)
}
