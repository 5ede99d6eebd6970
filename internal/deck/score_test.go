package deck

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  int
	}{
		{
			name:  "empty hand",
			cards: []Card{},
			want:  0,
		},
		{
			name:  "number cards",
			cards: []Card{{Rank: Two, Suit: Hearts}, {Rank: Nine, Suit: Clubs}},
			want:  11,
		},
		{
			name:  "face cards count ten",
			cards: []Card{{Rank: Jack, Suit: Spades}, {Rank: Queen, Suit: Hearts}},
			want:  20,
		},
		{
			name:  "single ace is eleven",
			cards: []Card{{Rank: Ace, Suit: Hearts}},
			want:  11,
		},
		{
			name:  "blackjack",
			cards: []Card{{Rank: Ace, Suit: Hearts}, {Rank: King, Suit: Spades}},
			want:  21,
		},
		{
			name:  "ace demotes after bust",
			cards: []Card{{Rank: Ace, Suit: Hearts}, {Rank: King, Suit: Spades}, {Rank: Five, Suit: Clubs}},
			want:  16,
		},
		{
			name:  "two aces demote one",
			cards: []Card{{Rank: Ace, Suit: Hearts}, {Rank: Ace, Suit: Spades}},
			want:  12,
		},
		{
			name:  "two aces with nine",
			cards: []Card{{Rank: Ace, Suit: Hearts}, {Rank: Ace, Suit: Spades}, {Rank: Nine, Suit: Clubs}},
			want:  21,
		},
		{
			name:  "three aces with king demote all",
			cards: []Card{{Rank: Ace, Suit: Hearts}, {Rank: Ace, Suit: Spades}, {Rank: Ace, Suit: Clubs}, {Rank: King, Suit: Diamonds}},
			want:  13,
		},
		{
			name:  "bust with no aces stays busted",
			cards: []Card{{Rank: King, Suit: Hearts}, {Rank: Queen, Suit: Spades}, {Rank: Five, Suit: Clubs}},
			want:  25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.cards); got != tt.want {
				t.Errorf("Score(%v) = %d, want %d", tt.cards, got, tt.want)
			}
		})
	}
}

func TestIsBust(t *testing.T) {
	if IsBust(21) {
		t.Error("21 should not bust")
	}
	if !IsBust(22) {
		t.Error("22 should bust")
	}
}
