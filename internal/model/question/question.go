package question

// Question is a canned prompt offered in the "Frequent Questions" pane.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Seed returns the default frequent questions shown beside the conversation.
func Seed() []Question {
	return []Question{
		{
			ID:   "sleepy",
			Text: "I'm feeling very sleepy day by day. What can I do?",
		},
		{
			ID:   "sleep-schedule",
			Text: "How can I establish a consistent sleep schedule?",
		},
		{
			ID:   "therapy",
			Text: "I'm feeling down and don't see the point in anything. Does therapy help?",
		},
	}
}
