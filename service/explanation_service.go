package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/domain"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

type ExplanationConfig struct {
	APIKey string
	APIURL string
	Model  string
}

// ExplanationService writes a short executive summary of a stress result,
// using an LLM when one is configured and a template otherwise.
type ExplanationService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	httpClient *http.Client
	logger     *zap.Logger
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewExplanationService(cfg ExplanationConfig, logger *zap.Logger) *ExplanationService {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &ExplanationService{
		apiKey:  cfg.APIKey,
		apiURL:  cfg.APIURL,
		model:   cfg.Model,
		enabled: cfg.APIKey != "",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Explain never fails; an LLM error falls back to the template summary.
func (s *ExplanationService) Explain(
	ctx context.Context,
	profile domain.BankProfile,
	result domain.StressResult,
) string {
	if !s.enabled {
		return FallbackExplanation(profile, result)
	}

	prompt := fmt.Sprintf(`Summarise this bank capital stress test for a board audience.

BANK: %s
SCENARIO: %s
- Unemployment shock: %v percentage points
- GDP shock: %v percentage points

RESULTS:
- Credit loss: %s
- Market loss: %s
- Total loss: %s
- Tier 1 capital before stress: %s
- Capital after stress: %s
- Capital adequacy ratio after stress: %s%%
- Basel minimum: %v%%
- Outcome: %s

Write 2-3 plain sentences: what drove the losses, how far the ratio sits from the minimum, and what the outcome means.`,
		profile.Name, result.Scenario,
		result.Inputs.UnemploymentShock, result.Inputs.GDPShock,
		humanize.Comma(result.Losses.CreditLoss),
		humanize.Comma(result.Losses.MarketLoss),
		humanize.Comma(result.Losses.TotalLoss),
		humanize.Comma(result.Capital.BeforeStress),
		humanize.Comma(result.Capital.AfterStress),
		result.CapitalAdequacyRatio, result.BaselMinimum, result.Result)

	explanation, err := s.callLLM(ctx, prompt)
	if err != nil {
		s.logger.Warn("explanation service unavailable, using template", zap.Error(err))
		return FallbackExplanation(profile, result)
	}
	return explanation
}

func (s *ExplanationService) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a bank risk analyst. You explain regulatory capital stress test results precisely and briefly, quoting the figures you are given and never inventing new ones.",
			},
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: 200,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", err
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from AI")
	}
	return chat.Choices[0].Message.Content, nil
}

// FallbackExplanation is the template summary used without an LLM.
func FallbackExplanation(profile domain.BankProfile, result domain.StressResult) string {
	gap := result.Figures.CapitalAdequacyRatio - result.BaselMinimum
	position := fmt.Sprintf("%.2f points above", gap)
	if gap < 0 {
		position = fmt.Sprintf("%.2f points below", -gap)
	}

	outcome := "passes"
	if result.Result == domain.VerdictFail {
		outcome = "fails"
	}

	return fmt.Sprintf("Under the %s scenario %s loses %s (credit %s, market %s), leaving %s of Tier 1 capital. "+
		"The capital adequacy ratio falls to %s%%, %s the %v%% Basel minimum, so the bank %s the scenario.",
		result.Scenario, profile.Name,
		humanize.Comma(result.Losses.TotalLoss),
		humanize.Comma(result.Losses.CreditLoss),
		humanize.Comma(result.Losses.MarketLoss),
		humanize.Comma(result.Capital.AfterStress),
		result.CapitalAdequacyRatio, position, result.BaselMinimum, outcome)
}
