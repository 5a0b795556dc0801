package session

import "github.com/aliskhannn/flashquiz-bot/internal/domain/entities"

// pointsByAttempt holds the points for a correct answer on attempts 1, 2 and 3.
// Later correct attempts earn lastAttemptPoints.
var pointsByAttempt = [...]int{10, 7, 4}

const lastAttemptPoints = 1

// Points returns the score for a rating given on the attempt-th try.
// Incorrect ratings earn nothing.
func Points(attempt int, q entities.Quality) int {
	if attempt < 1 || !q.IsCorrect() {
		return 0
	}
	if attempt <= len(pointsByAttempt) {
		return pointsByAttempt[attempt-1]
	}
	return lastAttemptPoints
}
