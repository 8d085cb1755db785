package runtime

import "github.com/aretw0/squadchat/pkg/domain"

// StatusKind is what the loop does after a step.
type StatusKind int

const (
	StatusContinue StatusKind = iota + 1
	StatusSuspend
	StatusTerminate
)

// StepStatus is the explicit result of one loop iteration.
type StepStatus struct {
	Kind StatusKind

	// Next is set for StatusContinue.
	Next domain.NodeID
}

// Continue moves the loop to next.
func Continue(next domain.NodeID) StepStatus {
	return StepStatus{Kind: StatusContinue, Next: next}
}

// Suspend stops the loop until the session is resumed.
func Suspend() StepStatus {
	return StepStatus{Kind: StatusSuspend}
}

// Terminate ends the run.
func Terminate() StepStatus {
	return StepStatus{Kind: StatusTerminate}
}

// ResultKind reports how a run ended.
type ResultKind string

const (
	Suspended ResultKind = "suspended"
	Finished  ResultKind = "finished"
)

// Result is returned by Engine.Run.
type Result struct {
	Kind  ResultKind
	State domain.ConversationState

	// Pending is the node the run stopped before; Terminal when finished.
	Pending domain.NodeID
	Steps   int
}

// Reply maps the result to what the caller is shown.
func (r Result) Reply() domain.Reply {
	if r.Kind == Suspended {
		return domain.Reply{Kind: domain.ReplyClarification, Text: r.State.ClarificationRequest}
	}
	return domain.Reply{Kind: domain.ReplyAnswer, Text: r.State.Answer}
}
