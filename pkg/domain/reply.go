package domain

// ReplyKind tells the caller how to present a reply.
type ReplyKind string

const (
	ReplyAnswer        ReplyKind = "answer"
	ReplyClarification ReplyKind = "clarification"
)

// Reply is the public result of handling one inbound message.
type Reply struct {
	Kind ReplyKind `json:"kind"`
	Text string    `json:"text"`
}
