package entities

import "time"

type User struct {
	Id               string    `dynamodbav:"UserId" json:"id"`
	Handle           string    `dynamodbav:"Handle" json:"handle"`
	Username         string    `dynamodbav:"Username" json:"username"`
	CodeforcesRating int       `dynamodbav:"CodeforcesRating" json:"codeforcesRating"`
	DuelRating       int       `dynamodbav:"DuelRating" json:"duelRating"`
	Wins             int       `dynamodbav:"Wins" json:"wins"`
	Losses           int       `dynamodbav:"Losses" json:"losses"`
	CreatedAt        time.Time `dynamodbav:"CreatedAt" json:"createdAt"`
}
