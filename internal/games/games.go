// Package games holds the small door games reachable from the BBS menu.
// Each game is a per-player session driven one text message at a time.
package games

// Game is one in-progress session. Handle consumes a player's message and
// returns the reply plus whether the session is over.
type Game interface {
	Name() string
	Start() string
	Handle(input string) (reply string, done bool)
}
