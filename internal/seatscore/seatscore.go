// Package seatscore defines the core domain types and the rating engine.
// It has no external dependencies.
package seatscore

import "strings"

const (
	// SeatCapacity is the maximum number of players per seat.
	SeatCapacity = 6

	// InitialRate is the rating assigned to a player on first scan.
	InitialRate = 50

	// MinRate is the rating floor; no adjustment drops a player below it.
	MinRate = 30
)

// Title is a rank-based badge held by the top three players by rating.
type Title string

const (
	TitleNone     Title = ""
	TitleChampion Title = "champion"
	TitleRunnerUp Title = "runner-up"
	TitleThird    Title = "third"
)

// PlayerRecord is a player's tournament-wide record. LastRank is 1-based;
// zero means the player has never been ranked.
type PlayerRecord struct {
	Nickname string `json:"nickname"`
	Rate     int    `json:"rate"`
	LastRank int    `json:"lastRank,omitempty"`
	Bonus    int    `json:"bonus"`
	Title    Title  `json:"title,omitempty"`
}

// NewPlayerRecord returns the default record for a freshly scanned player.
// The nickname defaults to the player identifier.
func NewPlayerRecord(id string) *PlayerRecord {
	return &PlayerRecord{Nickname: id, Rate: InitialRate}
}

// ActionType identifies a reversible mutation in the action history.
type ActionType string

const (
	ActionAddPlayer    ActionType = "add_player"
	ActionRemovePlayer ActionType = "remove_player"
	ActionRemoveSeat   ActionType = "remove_seat"
)

// Action is one entry of the undo stack. It carries enough data to invert
// itself: the original index for a removed player, the full player sequence
// for a removed seat.
type Action struct {
	Type     ActionType `json:"type"`
	SeatID   string     `json:"seatId"`
	PlayerID string     `json:"playerId,omitempty"`
	Index    int        `json:"index,omitempty"`
	Players  []string   `json:"players,omitempty"`
}

// Snapshot is the state shape exchanged with the remote document store and
// written to local storage. Field names are fixed by the remote contract;
// Rev is the opaque revision counter used for optimistic concurrency.
type Snapshot struct {
	SeatMap    map[string][]string      `json:"seatMap"`
	PlayerData map[string]*PlayerRecord `json:"playerData"`
	Rev        int64                    `json:"rev"`
}

// TokenKind classifies a decoded scan token.
type TokenKind string

const (
	TokenSeat    TokenKind = "seat"
	TokenPlayer  TokenKind = "player"
	TokenUnknown TokenKind = "unknown"
)

const (
	seatTokenPrefix   = "table"
	playerTokenPrefix = "player"
)

// ClassifyToken routes a decoded QR text: seat tokens start with "table",
// player tokens with "player". Anything else is unknown.
func ClassifyToken(text string) TokenKind {
	switch {
	case strings.HasPrefix(text, seatTokenPrefix):
		return TokenSeat
	case strings.HasPrefix(text, playerTokenPrefix):
		return TokenPlayer
	default:
		return TokenUnknown
	}
}
