package domain

// NodeID names a step of the conversation workflow.
type NodeID string

// Nodes of the squad workflow.
const (
	NodeValidate               NodeID = "Validate"
	NodeExtractTeam            NodeID = "ExtractTeam"
	NodeClarify                NodeID = "Clarify"
	NodeInterpretClarification NodeID = "InterpretClarification"
	NodeFetchSquad             NodeID = "FetchSquad"
	NodeFormulateResponse      NodeID = "FormulateResponse"

	// Terminal is the edge target that ends a run.
	Terminal NodeID = ""
)

// String returns the node name, or "END" for Terminal.
func (n NodeID) String() string {
	if n == Terminal {
		return "END"
	}
	return string(n)
}

// Outcome is the tag a step returns to select its outgoing edge.
type Outcome string

const (
	OutcomeValid      Outcome = "valid"
	OutcomeInvalid    Outcome = "invalid"
	OutcomeFound      Outcome = "found"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeUnresolved Outcome = "unresolved"

	// OutcomeNext is used by steps with a single unconditional edge.
	OutcomeNext Outcome = "next"
)
