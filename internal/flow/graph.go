package flow

import (
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/workflow"
)

// NewGraph wires the handlers into the squad workflow.
//
//	Validate --valid--> ExtractTeam --found--> FetchSquad --> FormulateResponse --> END
//	   |                    |                      ^
//	invalid             not_found                found
//	   v                    v                      |
//	  END                Clarify ----> [suspend] InterpretClarification --unresolved--> END
func NewGraph(h *Handlers) (*workflow.Definition, error) {
	b := workflow.New().Entry(domain.NodeValidate)

	b.Add(domain.NodeValidate).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeValid, domain.OutcomeInvalid}, Run: h.Validate}).
		On(domain.OutcomeValid, domain.NodeExtractTeam).
		End(domain.OutcomeInvalid)

	b.Add(domain.NodeExtractTeam).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeFound, domain.OutcomeNotFound}, Run: h.ExtractTeam}).
		On(domain.OutcomeFound, domain.NodeFetchSquad).
		On(domain.OutcomeNotFound, domain.NodeClarify)

	b.Add(domain.NodeClarify).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeNext}, Run: h.Clarify}).
		Go(domain.NodeInterpretClarification)

	b.Add(domain.NodeInterpretClarification).
		InterruptBefore(InjectClarification).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeFound, domain.OutcomeUnresolved}, Run: h.InterpretClarification}).
		On(domain.OutcomeFound, domain.NodeFetchSquad).
		End(domain.OutcomeUnresolved)

	b.Add(domain.NodeFetchSquad).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeNext}, Run: h.FetchSquad}).
		Go(domain.NodeFormulateResponse)

	b.Add(domain.NodeFormulateResponse).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeNext}, Run: h.FormulateResponse}).
		End(domain.OutcomeNext)

	return b.Build()
}
