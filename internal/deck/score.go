package deck

// Score computes a blackjack hand total. Face cards count as 10, aces count
// as 11 until the total would bust, then demote to 1 one at a time.
func Score(cards []Card) int {
	total := 0
	softAces := 0

	for _, c := range cards {
		switch {
		case c.IsAce():
			total += 11
			softAces++
		case c.Rank >= Ten:
			total += 10
		default:
			total += int(c.Rank)
		}
	}

	for total > 21 && softAces > 0 {
		total -= 10
		softAces--
	}

	return total
}

// IsBust reports whether a total exceeds 21
func IsBust(total int) bool {
	return total > 21
}
