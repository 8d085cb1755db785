package eval

// Suite is a named batch of questions sent one per fresh session.
type Suite struct {
	Name    string
	Queries []string
}

// TeamQuery is the question asked for every team with --all-teams.
const TeamQuery = "Please list all the current senior squad members for the %s men's team"

// DefaultSuites returns the standard evaluation query sets.
func DefaultSuites() []Suite {
	return []Suite{
		{Name: "base", Queries: []string{
			"Pease list all the current senior squad members for the Manchester United men's team",
			"Can you provide the full list of current senior players for Manchester United men's team?",
			"Please show me the current Manchester United men's first team squad.",
			"I'd like to see all the players currently in the senior squad for Manchester City men's side.",
			"List the current roster of senior players for Liverpool men's football team.",
			"Who are the current members of Manchester United's men's senior squad?",
		}},
		{Name: "irrelevant", Queries: []string{
			"What is the weather in Warsaw?",
			"What is the population of Warsaw?",
			"How are you?",
			"What is the capital of France?",
			"My name is John.",
		}},
		{Name: "not_premier_league", Queries: []string{
			"Please tell me the squad of the Chico Bulls",
			"Can you provide the full list of current senior players for Barcelona men's team?",
			"List the current roster of senior players for Paris Saint-Germain men's football team.",
			"List the current roster of senior players for Real Madrid men's football team.",
		}},
		{Name: "precise", Queries: []string{
			"What are the players born after 2000 of the Manchester United?",
			"What are defenders of the Manchester United?",
		}},
		{Name: "unclear", Queries: []string{
			"What is the squad of Manchester?",
			"What is the squad of Man?",
			"What is the squad of Crystal?",
			"What is the squad of Man City?",
			"What is the squad of Brighton?",
			"What is the squad of Manshesterr?",
		}},
		{Name: "languages", Queries: []string{
			"Jaki jest skład Manchester United?",
			"Qual è il nome del Manchester United?",
			"Який склад Манчестер Юнайтед?",
		}},
	}
}
