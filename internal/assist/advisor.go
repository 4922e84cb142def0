package assist

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed advisor_prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxSuggestions      = 3
)

// Advisor asks Gemini for candidate careers and attaches them to a live-chat
// ticket. Any AI failure degrades to the plain live-chat ticket.
type Advisor struct {
	generator contentGenerator
	catalog   *catalog.Catalog
	fallback  *LiveChat
	logger    *zap.Logger
	maxLogLen int
}

func NewAdvisor(generator contentGenerator, c *catalog.Catalog, fallback *LiveChat, log *zap.Logger) (*Advisor, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if c == nil {
		return nil, errors.New("catalog is required")
	}
	if fallback == nil {
		return nil, errors.New("live chat fallback is required")
	}

	return &Advisor{
		generator: generator,
		catalog:   c,
		fallback:  fallback,
		logger:    logger.WithAIFields(log, "gemini", generator.Model()),
		maxLogLen: defaultMaxLogLength,
	}, nil
}

func (a *Advisor) HandOff(ctx context.Context, rec *career.Record) (*Ticket, error) {
	ticket, err := a.fallback.HandOff(ctx, rec)
	if err != nil {
		return nil, err
	}

	suggestions, advice, err := a.suggest(ctx, rec.CurrentClass)
	if err != nil {
		a.logger.Warn("advisor unavailable, using live chat",
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		return ticket, nil
	}

	ticket.Channel = ChannelAdvisor
	ticket.Suggestions = suggestions
	ticket.Advice = advice
	return ticket, nil
}

func (a *Advisor) suggest(ctx context.Context, class string) ([]string, string, error) {
	jobs := a.catalog.JobNames(career.UnknownSector)
	prompt := buildPrompt(class, career.StageOf(class), jobs)

	a.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, "", err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	return parseResponse(raw, jobs)
}

func buildPrompt(class string, stage career.Stage, jobs []string) string {
	if strings.TrimSpace(class) == "" {
		class = notSpecified
	}

	var list strings.Builder
	for _, job := range jobs {
		list.WriteString("- ")
		list.WriteString(job)
		list.WriteString("\n")
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{CLASS}}", class)
	prompt = strings.ReplaceAll(prompt, "{{STAGE}}", strconv.Itoa(int(stage)))
	prompt = strings.ReplaceAll(prompt, "{{LIMIT}}", strconv.Itoa(maxSuggestions))
	prompt = strings.ReplaceAll(prompt, "{{JOBS}}", strings.TrimRight(list.String(), "\n"))
	return prompt
}

// parseResponse keeps only suggestions that name a catalog job, in response order.
func parseResponse(raw string, jobs []string) ([]string, string, error) {
	var data struct {
		Suggestions []string `json:"suggestions"`
		Advice      string   `json:"advice"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, "", fmt.Errorf("parse gemini response: %w", err)
	}

	known := make(map[string]string, len(jobs))
	for _, job := range jobs {
		known[strings.ToLower(job)] = job
	}

	seen := make(map[string]bool)
	suggestions := make([]string, 0, maxSuggestions)
	for _, s := range data.Suggestions {
		job, ok := known[strings.ToLower(strings.TrimSpace(s))]
		if !ok || seen[job] {
			continue
		}
		seen[job] = true
		suggestions = append(suggestions, job)
		if len(suggestions) == maxSuggestions {
			break
		}
	}

	if len(suggestions) == 0 {
		return nil, "", errors.New("gemini response has no catalog careers")
	}

	return suggestions, strings.TrimSpace(data.Advice), nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
