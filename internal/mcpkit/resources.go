package mcpkit

import (
	"encoding/json"
	"fmt"
)

// Resource is one server-side resource with static content.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Content     func() (string, error)
}

// Resources returns the resource set, in listing order.
func Resources() []Resource {
	return []Resource{
		{
			URI:         "config://settings",
			Name:        "Server Settings",
			Description: "Server configuration settings",
			MIMEType:    "text/plain",
			Content: func() (string, error) {
				return `Server Configuration:
- Version: 1.0.0
- Environment: Development
- Max Connections: 100
- Timeout: 30s
`, nil
			},
		},
		{
			URI:         "data://users",
			Name:        "User List",
			Description: "List of sample users",
			MIMEType:    "text/plain",
			Content: func() (string, error) {
				return `Users:
1. Alice (admin@example.com)
2. Bob (bob@example.com)
3. Charlie (charlie@example.com)
4. Diana (diana@example.com)
`, nil
			},
		},
		{
			URI:         "data://stats",
			Name:        "Server Statistics",
			Description: "Server runtime statistics",
			MIMEType:    "application/json",
			Content: func() (string, error) {
				stats := map[string]any{
					"uptime":       "1h 23m",
					"requests":     42,
					"errors":       0,
					"memory_usage": "125 MB",
				}
				b, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return "", err
				}
				return string(b), nil
			},
		},
	}
}

// ReadResource returns the content and MIME type for uri.
func ReadResource(uri string) (content, mimeType string, err error) {
	for _, r := range Resources() {
		if r.URI == uri {
			content, err = r.Content()
			return content, r.MIMEType, err
		}
	}
	return "", "", fmt.Errorf("unknown resource URI: %s", uri)
}
