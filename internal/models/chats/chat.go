package chatmodels

import "time"

// Message is one chat line posted to a team.
type Message struct {
	ID        string    `json:"id" bson:"_id"`
	TeamID    string    `json:"team" bson:"team"`
	Sender    string    `json:"sender" bson:"sender"`
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Sender is the subset of a user profile attached to chat lines.
type Sender struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileImage string `json:"profileImage"`
}

// MessageView is a chat line with its sender resolved.
type MessageView struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team"`
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
