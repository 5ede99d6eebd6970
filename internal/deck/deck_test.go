package deck

import (
	"testing"

	"github.com/victorzsh/blackjack-server/internal/randutil"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := New()

	if d.Remaining() != 52 {
		t.Fatalf("New() deck has %d cards, want 52", d.Remaining())
	}

	seen := make(map[Card]bool)
	for _, c := range d.Cards() {
		if seen[c] {
			t.Errorf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Errorf("deck has %d unique cards, want 52", len(seen))
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := randutil.New(7)

	canonical := countCards(New().Cards())
	shuffled := countCards(NewShuffled(rng).Cards())

	if len(canonical) != len(shuffled) {
		t.Fatalf("shuffled deck has %d distinct cards, want %d", len(shuffled), len(canonical))
	}
	for card, n := range canonical {
		if shuffled[card] != n {
			t.Errorf("card %v appears %d times after shuffle, want %d", card, shuffled[card], n)
		}
	}
}

func TestDrawConsumesFromFront(t *testing.T) {
	d := New()
	want := d.Cards()

	for i := 0; i < 52; i++ {
		card, ok := d.Draw()
		if !ok {
			t.Fatalf("draw %d failed on a non-empty deck", i)
		}
		if card != want[i] {
			t.Errorf("draw %d = %v, want %v", i, card, want[i])
		}
	}

	if !d.IsEmpty() {
		t.Errorf("deck not empty after 52 draws, %d remaining", d.Remaining())
	}
	if _, ok := d.Draw(); ok {
		t.Error("draw from empty deck succeeded")
	}
}

func countCards(cards []Card) map[Card]int {
	counts := make(map[Card]int)
	for _, c := range cards {
		counts[c]++
	}
	return counts
}
