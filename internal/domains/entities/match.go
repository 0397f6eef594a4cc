package entities

import "time"

type MatchStatus string

const (
	MatchWaiting  MatchStatus = "WAITING"
	MatchActive   MatchStatus = "ACTIVE"
	MatchFinished MatchStatus = "FINISHED"
	MatchAborted  MatchStatus = "ABORTED"
)

// Match is the durable record of a duel. The embedded Problem is a snapshot
// taken at creation so a catalog update never touches an in-flight match.
type Match struct {
	Id        string      `dynamodbav:"MatchId" json:"matchId"`
	RoomToken string      `dynamodbav:"RoomToken" json:"roomToken"`
	Player1Id string      `dynamodbav:"Player1Id" json:"player1Id"`
	Player2Id string      `dynamodbav:"Player2Id" json:"player2Id"`
	Problem   Problem     `dynamodbav:"Problem" json:"problem"`
	Status    MatchStatus `dynamodbav:"Status" json:"status"`
	WinnerId  string      `dynamodbav:"WinnerId" json:"winnerId"`
	StartedAt *time.Time  `dynamodbav:"StartedAt" json:"startedAt"`
	EndedAt   *time.Time  `dynamodbav:"EndedAt" json:"endedAt"`
	CreatedAt time.Time   `dynamodbav:"CreatedAt" json:"createdAt"`
}

// Terminal reports whether the match reached a final archival state.
func (m Match) Terminal() bool {
	return m.Status == MatchFinished || m.Status == MatchAborted
}
