package domain

import "time"

// ChatUser is the sender summary embedded in each chat message.
type ChatUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// ChatMessage is one entry in a board's chat log. The initial history arrives
// newest-first in a single batch and is reversed into chronological order;
// after that messages append one at a time.
type ChatMessage struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	User      ChatUser  `json:"user"`
}
