package entity

import "time"

const UnknownUserName = "Unknown User"

type Comment struct {
	ID        string
	ReelID    string
	UserID    string
	UserName  string
	Text      string
	Timestamp time.Time
}
