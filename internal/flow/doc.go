// Package flow holds the six steps of the squad conversation and wires them into a workflow graph.
package flow
