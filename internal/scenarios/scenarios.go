// Package scenarios defines the agent probes: a customer-support agent with
// injected customer context and structured output, a math agent with
// calculation tools, and an MCP-backed agent whose tools come from a spawned
// MCP server.
package scenarios

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitop-dev/aiprobe/internal/agent"
)

// CustomerContext is the dependency injected into the support agent's tools.
type CustomerContext struct {
	CustomerID          string
	Name                string
	Tier                string
	AccountBalance      float64
	OpenTickets         int
	LastPurchaseDaysAgo int
}

// GoldCustomer is the fixture every support probe runs against.
var GoldCustomer = CustomerContext{
	CustomerID:          "CUST001",
	Name:                "Alice Johnson",
	Tier:                "gold",
	AccountBalance:      1500.0,
	OpenTickets:         1,
	LastPurchaseDaysAgo: 5,
}

// SupportOutput is the support agent's structured result.
type SupportOutput struct {
	Advice   string   `json:"advice"`
	Eligible bool     `json:"eligible"`
	Perks    []string `json:"perks"`
}

// CalculationResult is the math agent's structured result.
type CalculationResult struct {
	Result      float64 `json:"result"`
	Operation   string  `json:"operation"`
	Explanation string  `json:"explanation"`
}

// PerksForTier returns the perks a customer tier is entitled to.
func PerksForTier(tier string) []string {
	switch tier {
	case "gold":
		return []string{"priority_support", "free_shipping", "early_access", "discount_10"}
	case "silver":
		return []string{"free_shipping"}
	default:
		return nil
	}
}

// Percentage returns what part is of total, as a percentage. A zero total
// yields 0.
func Percentage(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

var supportOutputSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"advice": {"type": "string", "description": "Advice for the customer"},
		"eligible": {"type": "boolean", "description": "Whether the customer is eligible for the requested perks"},
		"perks": {"type": "array", "items": {"type": "string"}, "description": "Perks the customer is entitled to"}
	},
	"required": ["advice", "eligible"]
}`)

var calculationResultSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"result": {"type": "number", "description": "The numeric result"},
		"operation": {"type": "string", "description": "The operations performed"},
		"explanation": {"type": "string", "description": "How the result was obtained"}
	},
	"required": ["result", "operation"]
}`)

// NewSupportAgent builds the customer-support agent. The customer context is
// captured by the tools, not sent to the model directly.
func NewSupportAgent(name, model string, customer CustomerContext) agent.Agent {
	return agent.Agent{
		Name:  name,
		Model: model,
		Instructions: "You are a customer support agent. Use the available tools to look up " +
			"the customer's account and perk eligibility before answering.",
		Tools: []agent.Tool{
			{
				Name:        "check_perk_eligibility",
				Description: "Check whether the customer is eligible for a named perk.",
				InputSchema: json.RawMessage(`{
					"type": "object",
					"properties": {
						"perk": {"type": "string", "description": "Perk name, e.g. priority_support"}
					},
					"required": ["perk"]
				}`),
				Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
					var args struct {
						Perk string `json:"perk"`
					}
					if err := json.Unmarshal(input, &args); err != nil {
						return nil, err
					}
					for _, p := range PerksForTier(customer.Tier) {
						if p == args.Perk {
							return map[string]any{"perk": args.Perk, "eligible": true}, nil
						}
					}
					return map[string]any{"perk": args.Perk, "eligible": false}, nil
				},
			},
			{
				Name:        "account_summary",
				Description: "Return the customer's account summary.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
				Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
					return map[string]any{
						"customer_id":            customer.CustomerID,
						"name":                   customer.Name,
						"tier":                   customer.Tier,
						"account_balance":        customer.AccountBalance,
						"open_tickets":           customer.OpenTickets,
						"last_purchase_days_ago": customer.LastPurchaseDaysAgo,
					}, nil
				},
			},
		},
		OutputSchema: supportOutputSchema,
		Settings: agent.Settings{
			Temperature: agent.Float(0.3),
			MaxTokens:   agent.Int(300),
		},
	}
}

// NewMathAgent builds the math agent with calculation tools and a structured
// result.
func NewMathAgent(name, model string) agent.Agent {
	return agent.Agent{
		Name:  name,
		Model: model,
		Instructions: "You are a mathematical assistant. Use the available tools to perform " +
			"calculations and return structured results.",
		Tools:        MathTools(),
		OutputSchema: calculationResultSchema,
		Settings: agent.Settings{
			Temperature: agent.Float(0.1),
			MaxTokens:   agent.Int(300),
		},
	}
}

// MathTools are the calculation tools shared by the math agent and its tests.
func MathTools() []agent.Tool {
	numberArgs := json.RawMessage(`{
		"type": "object",
		"properties": {
			"a": {"type": "number", "description": "First number"},
			"b": {"type": "number", "description": "Second number"}
		},
		"required": ["a", "b"]
	}`)
	return []agent.Tool{
		{
			Name:        "add",
			Description: "Add two numbers together.",
			InputSchema: numberArgs,
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				a, b, err := twoNumbers(input)
				if err != nil {
					return nil, err
				}
				return a + b, nil
			},
		},
		{
			Name:        "multiply",
			Description: "Multiply two numbers together.",
			InputSchema: numberArgs,
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				a, b, err := twoNumbers(input)
				if err != nil {
					return nil, err
				}
				return a * b, nil
			},
		},
		{
			Name:        "calculate_percentage",
			Description: "Calculate what percentage 'part' is of 'total'.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"part": {"type": "number"},
					"total": {"type": "number"}
				},
				"required": ["part", "total"]
			}`),
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var args struct {
					Part  float64 `json:"part"`
					Total float64 `json:"total"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return nil, err
				}
				return Percentage(args.Part, args.Total), nil
			},
		},
	}
}

func twoNumbers(input json.RawMessage) (float64, float64, error) {
	var args struct {
		A float64 `json:"a"`
		B float64 `json:"b"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return 0, 0, err
	}
	return args.A, args.B, nil
}

// NewMCPAgent builds the agent whose tools are bridged from an MCP server.
func NewMCPAgent(name, model string, tools []agent.Tool) agent.Agent {
	return agent.Agent{
		Name:  name,
		Model: model,
		Instructions: "You are a calculator assistant. Use the available tools for every " +
			"calculation instead of computing yourself.",
		Tools: tools,
		Settings: agent.Settings{
			Temperature: agent.Float(0.1),
			MaxTokens:   agent.Int(300),
		},
	}
}

// Names of the probe scenarios, in run order.
var Names = []string{"support", "math", "mcp"}

// Prompt returns the canonical probe prompt for a scenario.
func Prompt(scenario string) (string, error) {
	switch scenario {
	case "support":
		return "I'm interested in priority support and a 10% discount. Am I eligible?", nil
	case "math":
		return "Calculate 25 + 17, then multiply the result by 3. " +
			"Also calculate what percentage 42 is of 100.", nil
	case "mcp":
		return "Add 15 and 27, then multiply the result by 2.", nil
	}
	return "", fmt.Errorf("unknown scenario %q (known: support, math, mcp)", scenario)
}

// Build constructs the agent for one scenario/model pair. mcpTools is only
// consulted for the mcp scenario.
func Build(scenario, model string, mcpTools []agent.Tool) (agent.Agent, error) {
	name := fmt.Sprintf("%s_%s", scenario, model)
	switch scenario {
	case "support":
		return NewSupportAgent(name, model, GoldCustomer), nil
	case "math":
		return NewMathAgent(name, model), nil
	case "mcp":
		if len(mcpTools) == 0 {
			return agent.Agent{}, fmt.Errorf("mcp scenario requires bridged MCP tools")
		}
		return NewMCPAgent(name, model, mcpTools), nil
	}
	return agent.Agent{}, fmt.Errorf("unknown scenario %q", scenario)
}
