package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/event-platform-api/internal/constants"
)

// KeywordSuggester proposes search keywords for an event.
type KeywordSuggester interface {
	SuggestKeywords(ctx context.Context, title, description string) ([]string, error)
}

// KeywordService suggests event keywords with an OpenAI chat model.
type KeywordService struct {
	client *openai.Client
	model  string
}

// NewKeywordService returns nil when apiKey is empty.
func NewKeywordService(apiKey string) *KeywordService {
	if apiKey == "" {
		return nil
	}
	return NewKeywordServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewKeywordServiceWithConfig creates a KeywordService from a client config.
func NewKeywordServiceWithConfig(cfg openai.ClientConfig) *KeywordService {
	return &KeywordService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
	}
}

// SuggestKeywords asks the model for short lower-case keywords describing the event.
func (s *KeywordService) SuggestKeywords(ctx context.Context, title, description string) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, ErrKeywordsUnavailable
	}

	prompt := fmt.Sprintf(`You help people find events. Suggest up to %d short search keywords for the event below.

Title: %s
Description: %s

Reply with a JSON array of lower-case strings only, for example ["jazz", "live music"].
Reply with [] if nothing fits.`, constants.MaxSuggestedKeywords, title, description)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "`\n ")

	var keywords []string
	if err := json.Unmarshal([]byte(content), &keywords); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return normalizeKeywords(keywords), nil
}

// normalizeKeywords lower-cases, trims and de-duplicates keywords, keeping at
// most MaxSuggestedKeywords.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
		if len(out) == constants.MaxSuggestedKeywords {
			break
		}
	}
	return out
}
