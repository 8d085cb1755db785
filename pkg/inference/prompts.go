package inference

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/cloudwego/eino/schema"
)

const classifyPrompt = `Determine if user is asking about a Premier League team squad.
Answer only YES or NO.`

const extractPrompt = `Extract the team names from user query if any.
Just output the team name, no extra words.`

var clarifyTemplate = template.Must(template.New("clarify").Parse(`You are an assistant helping to identify the correct football club the user is referring to.

Here is the list of known football clubs:
{{.Clubs}}

The user has entered the following message:
"{{.Message}}"

Your task:
- Analyze the user input and try to match it to the most likely club(s) from the provided list.
- Consider possible typos, abbreviations, nicknames, or partial names.
- Use fuzzy matching and common knowledge to interpret ambiguous or imprecise input.
- Only return club names that exactly match the names from the provided list.
- Do not invent club names.

Output format:
- If one club is the clear best match:
  "I believe you mean: <club>. Can you please confirm?"
- If multiple clubs are possible:
  "Possible clubs: [club1, club2, ...]. Could you please confirm which one you mean?"
- If no match is found:
  "I'm sorry, I couldn't find a matching club. Could you please clarify?"

Be strict about using only the provided club list.`))

var interpretTemplate = template.Must(template.New("interpret").Parse(`You are a football assistant specialized in the Premier League.

To clarify, you previously asked (clarification request):
{{.Request}}

The user responded with (clarification response):
{{.Response}}

Your task is:
- Analyze the above information and determine the most likely Premier League team the user is referring to.
- Use only the data from the clarification request and the clarification response.
- Do not use any additional information.
- Do not change the team name and formatting from clarification request.

Your output should be:
- Return only the full official Premier League team name, if you can confidently identify it.
- If you are unsure or the team does not exist in the Premier League, return: UNKNOWN.

Only return the team name or UNKNOWN, and nothing else.`))

var formulateTemplate = template.Must(template.New("formulate").Parse(`You are a football squad expert assistant.

You have access to the following squad:

{{.Squad}}

When answering questions:
- Use only the data from the squad.
- If asked about the squad present the players names, positions and birthdates.
- If the data is not present, politely say "I don't have information about that."
- If asked for positions, group players by positions.
- If asked for ages, calculate the age based on today's date ({{.Today}}).
- If asked for youngest/oldest players, compare birthdates.
- If asked for number of players, give precise counts.
- Be precise and concise.`))

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return sb.String(), nil
}

func classifyMessages(query string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(classifyPrompt),
		schema.UserMessage("User Query: " + query),
	}
}

func extractMessages(query string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(extractPrompt),
		schema.UserMessage("User Query: " + query),
	}
}

func clarifyMessages(clubs []string, message string) ([]*schema.Message, error) {
	text, err := render(clarifyTemplate, struct {
		Clubs   string
		Message string
	}{
		Clubs:   "[" + strings.Join(clubs, ", ") + "]",
		Message: message,
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{schema.UserMessage(text)}, nil
}

func interpretMessages(request, response string) ([]*schema.Message, error) {
	text, err := render(interpretTemplate, struct{ Request, Response string }{request, response})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{schema.UserMessage(text)}, nil
}

func formulateMessages(squad *domain.Squad, question string, today time.Time) ([]*schema.Message, error) {
	system, err := render(formulateTemplate, struct{ Squad, Today string }{
		Squad: SquadMarkdown(squad),
		Today: today.Format(domain.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(question),
	}, nil
}

// SquadMarkdown renders a squad as a markdown listing grouped by position.
// Staff without a playing position are listed without one.
func SquadMarkdown(squad *domain.Squad) string {
	var sb strings.Builder
	sb.WriteString("# Squad\n")
	grouped := squad.Grouped()
	for _, group := range domain.PositionGroups {
		players, ok := grouped[group]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n", group)
		for _, p := range players {
			dob := p.DateOfBirth.String()
			if dob == "" {
				dob = "unknown"
			}
			if group == domain.GroupManager {
				fmt.Fprintf(&sb, "- %s (%s)\n", p.Name, dob)
			} else {
				fmt.Fprintf(&sb, "- %s (%s) - %s\n", p.Name, dob, p.Position)
			}
		}
	}
	return sb.String()
}
