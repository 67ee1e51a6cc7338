package chat

import "time"

// DefaultUserName is shown in the greeting when no display name was provided.
const DefaultUserName = "User"

// Session binds one chat screen to the user identity it submits on behalf of.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Greeting is the opening line rendered above the conversation.
func (s Session) Greeting() string {
	name := s.UserName
	if name == "" {
		name = DefaultUserName
	}
	return "Hi " + name + "! How can I help you?"
}
