/*
Package workflow provides a fluent builder for conversation graphs and the immutable
Definition it produces.

A graph is a set of nodes. Each node owns a Step, declares the outcomes the step can
report, and maps every outcome to exactly one target node (or to domain.Terminal).
Exactly one node is marked as the interrupt point: the engine suspends before running
it and resumes there once the user's reply has been injected into the state.

All wiring mistakes are caught by Build, so a Definition that exists can always route
every outcome its steps return.

Example usage:

	b := workflow.New().Entry("Ask")

	b.Add("Ask").
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeNext}, Run: ask}).
		Go("Answer")

	b.Add("Answer").
		InterruptBefore(saveReply).
		Do(workflow.Step{Outcomes: []domain.Outcome{domain.OutcomeNext}, Run: answer}).
		End(domain.OutcomeNext)

	def, err := b.Build()
*/
package workflow
