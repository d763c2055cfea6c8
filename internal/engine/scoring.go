package engine

import "unicode/utf8"

// Scoring is pure: every function here maps its inputs to a score with no
// shared state, which keeps the machines replayable against a snapshot.

const (
	baseScore      = 10
	streakBonusCap = 10
	lengthBonusMin = 5 // word length at which the length bonus starts

	turnTimeLimitMax = 15 // seconds for round 1
	turnTimeLimitMin = 8  // floor, never goes below
)

// StreakBonus converts a player's consecutive-correct-guess streak into a
// score bonus: 2 points per streak step, capped.
func StreakBonus(streak int) int {
	if streak < 0 {
		streak = 0
	}
	bonus := streak * 2
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}
	return bonus
}

// GuessScore computes the score for a correct catchmind guess.
//
// score = 10 + max(0, remaining seconds) + streak bonus
//
// remainingSeconds may be negative when the guess lands after the deadline
// but before the timer collaborator fires; it then contributes nothing.
func GuessScore(remainingSeconds, streak int) int {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	return baseScore + remainingSeconds + StreakBonus(streak)
}

// WordScore computes the score for an accepted word-chain submission.
//
// score = 10 + max(0, timeLimit − elapsed) + max(0, (len(word)−4)×2)
//
// The length bonus only applies once the word reaches 5 characters; length
// is counted in runes so multi-byte scripts score by character, not byte.
func WordScore(timeLimitSeconds, elapsedSeconds int, word string) int {
	remaining := timeLimitSeconds - elapsedSeconds
	if remaining < 0 {
		remaining = 0
	}
	return baseScore + remaining + lengthBonus(word)
}

func lengthBonus(word string) int {
	n := utf8.RuneCountInString(word)
	if n < lengthBonusMin {
		return 0
	}
	return (n - 4) * 2
}

// TurnTimeLimit computes the word-chain turn deadline for a round.
//
// limit = max(8, 15 − floor((round−1)/2)×2)
//
// The limit steps down by 2 seconds every other round and never drops
// below 8, so time pressure is non-increasing in the round number.
func TurnTimeLimit(round int) int {
	if round < 1 {
		round = 1
	}
	limit := turnTimeLimitMax - ((round-1)/2)*2
	if limit < turnTimeLimitMin {
		limit = turnTimeLimitMin
	}
	return limit
}
