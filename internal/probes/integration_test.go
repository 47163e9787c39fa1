package probes

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

func requireIntegration(t *testing.T) {
	t.Helper()

	_ = godotenv.Load()

	if os.Getenv("AIPROBE_INTEGRATION") == "" {
		t.Skip("set AIPROBE_INTEGRATION=1 to run integration tests")
	}
}

func TestIntegration_Truncation(t *testing.T) {
	requireIntegration(t)
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("set OPENAI_API_KEY to run integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var out bytes.Buffer
	p := &OpenAIProbe{Client: openai.NewClient(option.WithAPIKey(key)), Out: &out}
	if err := p.Truncation(ctx); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("expected a summary in the output")
	}
}

func TestIntegration_GenAIGenerate(t *testing.T) {
	requireIntegration(t)
	project := os.Getenv("GOOGLE_VERTEX_PROJECT")
	location := os.Getenv("GOOGLE_VERTEX_LOCATION")
	if project == "" || location == "" {
		t.Skip("set GOOGLE_VERTEX_PROJECT and GOOGLE_VERTEX_LOCATION to run integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	client, err := NewGenAIClient(ctx, project, location)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p := &GenAIProbe{Client: client, Out: &out}
	if err := p.Generate(ctx); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("expected weather text in the output")
	}
}
