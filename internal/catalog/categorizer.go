package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Label is the categorization produced for one dataset.
type Label struct {
	Category string `json:"category"`
	Purpose  string `json:"purpose"`
}

// Labeler assigns a category and a one-line purpose to a dataset based on
// its name and schema. The concrete implementation calls Claude; tests
// substitute a stub.
type Labeler interface {
	Label(ctx context.Context, name, kind, schemaJSON string) (Label, error)
}

// Categories a labeler may assign. The prompt pins the model to this set
// and the response is validated against it.
var Categories = []string{
	"Infrastructure",
	"Application",
	"Network",
	"Security",
	"Database",
	"Business",
}

const labelSystemPrompt = `You categorize observability datasets. Given a dataset's name, kind, and schema, respond with a single JSON object and nothing else:
{"category": "<one of: %s>", "purpose": "<one sentence describing what the dataset is used for>"}`

// ClaudeLabeler labels datasets with the Anthropic API. The client reads
// ANTHROPIC_API_KEY from the environment.
type ClaudeLabeler struct {
	client anthropic.Client
	model  string
}

// NewClaudeLabeler creates a labeler using the given model ID.
func NewClaudeLabeler(model string) (*ClaudeLabeler, error) {
	if model == "" {
		return nil, fmt.Errorf("catalog: model is required")
	}
	return &ClaudeLabeler{
		client: anthropic.NewClient(),
		model:  model,
	}, nil
}

// Label implements Labeler.
func (l *ClaudeLabeler) Label(ctx context.Context, name, kind, schemaJSON string) (Label, error) {
	prompt := fmt.Sprintf("Dataset name: %s\nKind: %s\nSchema: %s", name, kind, schemaJSON)

	message, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: fmt.Sprintf(labelSystemPrompt, strings.Join(Categories, ", "))},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Label{}, fmt.Errorf("labeling %s: %w", name, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		text.WriteString(block.Text)
	}

	return parseLabel(text.String())
}

// parseLabel extracts the JSON object from the model's response text.
// Tolerates surrounding prose and markdown fences; the object itself must
// carry a category from the allowed set.
func parseLabel(text string) (Label, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return Label{}, fmt.Errorf("no JSON object in label response: %q", text)
	}

	var label Label
	if err := json.Unmarshal([]byte(text[start:end+1]), &label); err != nil {
		return Label{}, fmt.Errorf("decoding label response: %w", err)
	}

	label.Category = strings.TrimSpace(label.Category)
	label.Purpose = strings.TrimSpace(label.Purpose)
	if !validCategory(label.Category) {
		return Label{}, fmt.Errorf("label category %q not in allowed set", label.Category)
	}
	if label.Purpose == "" {
		return Label{}, fmt.Errorf("label response missing purpose")
	}
	return label, nil
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
