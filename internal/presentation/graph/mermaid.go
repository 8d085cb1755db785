package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/workflow"
)

const endID = "END"

// Overlay highlights the node a suspended session will resume at.
type Overlay struct {
	Pending domain.NodeID
}

// GenerateMermaid renders a workflow definition as a Mermaid flowchart.
// Shapes:
// - Entry: ((Circle))
// - Interrupt (waits for user input): [/Parallelogram/]
// - Default: [Rectangle]
// Edges into an interrupt node are dotted and marked as a pause.
func GenerateMermaid(def *workflow.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ends := false
	for _, node := range def.Nodes() {
		id := sanitizeMermaidID(node.ID.String())

		opener, closer := "[", "]"
		switch {
		case node.ID == def.Entry():
			opener, closer = "((", "))"
		case node.Interrupt:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, node.ID, closer)

		for _, e := range node.Edges {
			if e.To == domain.Terminal {
				ends = true
			}
			to := sanitizeMermaidID(e.To.String())
			label := string(e.Outcome)

			switch {
			case def.IsInterrupt(e.To):
				fmt.Fprintf(&sb, "    %s -. \"%s (pause)\" .-> %s\n", id, label, to)
			case e.Outcome == domain.OutcomeNext:
				fmt.Fprintf(&sb, "    %s --> %s\n", id, to)
			default:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, label, to)
			}
		}
	}
	if ends {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", endID, endID)
	}

	if overlay != nil && overlay.Pending != domain.Terminal {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Pending.String()))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
