// Package hotness scores recent activity per X5 token.
package hotness

type Interface interface {
	Inc(token string)
	Score(token string) float64
	Reset(tokens ...string)
}

// Entry is one token with its current score.
type Entry struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

type Ranker interface {
	Top(n int) []Entry
}
