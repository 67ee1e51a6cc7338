package chat

// SubmissionStatus tracks a feedback or rating submission from dispatch to gateway answer.
type SubmissionStatus string

const (
	SubmissionIdle      SubmissionStatus = "idle"
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionFailed    SubmissionStatus = "failed"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether v is an accepted star rating.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}
