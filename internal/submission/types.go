package submission

import "strings"

// Phase is the lifecycle stage of a submission.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Pending:
		return "Pending"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Payload is the contact form as entered by the visitor.
type Payload struct {
	Name    string
	Email   string // reply-to address
	Message string
}

// Empty reports whether every field is blank.
func (p Payload) Empty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.Email) == "" &&
		strings.TrimSpace(p.Message) == ""
}
