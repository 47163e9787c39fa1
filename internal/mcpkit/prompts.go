package mcpkit

import "fmt"

// PromptArgument describes one argument of a prompt template.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// Prompt is one reusable prompt template.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
	Render      func(args map[string]string) (description, text string)
}

// Prompts returns the prompt set, in listing order.
func Prompts() []Prompt {
	return []Prompt{
		{
			Name:        "code_review",
			Description: "Generate a code review prompt",
			Arguments: []PromptArgument{
				{Name: "language", Description: "Programming language"},
			},
			Render: func(args map[string]string) (string, string) {
				language := argOr(args, "language", "python")
				text := fmt.Sprintf(`You are an expert %s code reviewer. Please review the following code and provide:

1. Code quality assessment
2. Potential bugs or issues
3. Performance improvements
4. Best practices recommendations
5. Security considerations

Be specific and constructive in your feedback.`, language)
				return fmt.Sprintf("Code review prompt for %s", language), text
			},
		},
		{
			Name:        "debug_assistant",
			Description: "Generate a debugging assistant prompt",
			Render: func(args map[string]string) (string, string) {
				return "Debugging assistant prompt", `You are a debugging assistant. Help the user:

1. Understand the error message
2. Identify the root cause
3. Suggest potential fixes
4. Provide prevention strategies

Ask clarifying questions if needed.`
			},
		},
		{
			Name:        "sql_query_helper",
			Description: "Help write SQL queries",
			Arguments: []PromptArgument{
				{Name: "database_type", Description: "Type of database (postgres, mysql, etc.)"},
			},
			Render: func(args map[string]string) (string, string) {
				dbType := argOr(args, "database_type", "PostgreSQL")
				text := fmt.Sprintf(`You are an expert %s database engineer. Help the user:

1. Write efficient SQL queries
2. Optimize existing queries
3. Explain query execution plans
4. Follow %s best practices
5. Ensure proper indexing

Provide clear explanations and examples.`, dbType, dbType)
				return fmt.Sprintf("SQL query helper for %s", dbType), text
			},
		},
	}
}

// GetPrompt renders the named prompt with args.
func GetPrompt(name string, args map[string]string) (description, text string, err error) {
	for _, p := range Prompts() {
		if p.Name == name {
			description, text = p.Render(args)
			return description, text, nil
		}
	}
	return "", "", fmt.Errorf("unknown prompt: %s", name)
}

func argOr(args map[string]string, key, fallback string) string {
	if v, ok := args[key]; ok && v != "" {
		return v
	}
	return fallback
}
