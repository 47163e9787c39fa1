// Package envcfg reads the probe configuration from the environment.
//
// Every probe is configured exclusively through environment variables, with an
// optional .env file for local runs. Real environment variables always win
// over .env values.
package envcfg

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Load reads .env from the working directory if present. A missing file is
// not an error.
func Load() {
	_ = godotenv.Load()
}

// Get returns the value of key, or fallback when key is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Require returns the value of key, or an error naming the missing variable.
func Require(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("envcfg: %s is required", key)
	}
	return v, nil
}

// SentryDSN returns the Sentry DSN. An empty DSN is valid: telemetry is
// disabled and probes still run.
func SentryDSN() string {
	return os.Getenv("SENTRY_DSN")
}

// Environment returns the Sentry environment name, defaulting per scenario.
func Environment(fallback string) string {
	return Get("ENV", fallback)
}

func OpenAIKey() (string, error) {
	return Require("OPENAI_API_KEY")
}

func AnthropicKey() (string, error) {
	return Require("ANTHROPIC_API_KEY")
}

// VertexProject and VertexLocation identify the Vertex AI endpoint used by
// the Google GenAI probes.
func VertexProject() (string, error) {
	return Require("GOOGLE_VERTEX_PROJECT")
}

func VertexLocation() (string, error) {
	return Require("GOOGLE_VERTEX_LOCATION")
}
