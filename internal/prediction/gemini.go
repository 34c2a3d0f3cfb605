package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/edufin/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiPredictor asks a Gemini model and falls back to Fallback on any
// error or unusable answer.
type GeminiPredictor struct {
	models   contentGenerator
	model    string
	Fallback Predictor
}

// NewGeminiPredictor creates a genai client using ambient credentials
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiPredictor(ctx context.Context, model string) (*GeminiPredictor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiPredictor: create genai client: %w", err)
	}
	return newGeminiPredictor(client.Models, model), nil
}

func newGeminiPredictor(models contentGenerator, model string) *GeminiPredictor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiPredictor{models: models, model: model, Fallback: RuleBased{}}
}

const jsonRules = "Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

func (g *GeminiPredictor) PredictFee(ctx context.Context, req FeeRequest) (FeePrediction, error) {
	baseline, err := g.Fallback.PredictFee(ctx, req)
	if err != nil {
		return FeePrediction{}, err
	}
	prompt := fmt.Sprintf(
		"You estimate annual tuition fees in Indian rupees for Indian colleges.\n\n"+
			"Student: course=%q, annual family income=%.0f, scholarship=%t.\n"+
			"A rule-based estimate is %.0f. Adjust it only if you have good reason.\n\n"+
			"Respond with an object {\"predicted_fee\": number}.\n",
		req.Course, req.Income, req.Scholarship, baseline.PredictedFee) + jsonRules

	var out FeePrediction
	if err := g.ask(ctx, prompt, &out); err != nil || out.PredictedFee <= 0 {
		g.logFallback(ctx, "predict_fee", err)
		return baseline, nil
	}
	return out, nil
}

func (g *GeminiPredictor) PredictBudget(ctx context.Context, req BudgetRequest) (BudgetPrediction, error) {
	baseline, err := g.Fallback.PredictBudget(ctx, req)
	if err != nil {
		return BudgetPrediction{}, err
	}
	prompt := fmt.Sprintf(
		"You plan monthly student budgets in Indian rupees.\n\n"+
			"Current monthly expenses: %.2f. A 20%% buffer gives %.2f.\n\n"+
			"Respond with an object {\"predicted_budget\": number}.\n",
		req.Expenses, baseline.PredictedBudget) + jsonRules

	var out BudgetPrediction
	if err := g.ask(ctx, prompt, &out); err != nil || out.PredictedBudget < req.Expenses {
		g.logFallback(ctx, "predict_budget", err)
		return baseline, nil
	}
	return out, nil
}

func (g *GeminiPredictor) Insights(ctx context.Context) (Insights, error) {
	prompt := "You are a financial coach for Indian college students.\n\n" +
		"Give a typical monthly spending breakdown as whole percentages summing to 100 " +
		"over the categories Rent, Food, Transport, Savings, Entertainment, Others, " +
		"and one short piece of advice for up to three categories.\n\n" +
		"Respond with an object {\"spending_patterns\": {category: number}, \"insights\": {category: string}}.\n" +
		jsonRules

	var out Insights
	if err := g.ask(ctx, prompt, &out); err != nil || len(out.SpendingPatterns) == 0 {
		g.logFallback(ctx, "financial_insights", err)
		return g.Fallback.Insights(ctx)
	}
	return out, nil
}

func (g *GeminiPredictor) ask(ctx context.Context, prompt string, v any) error {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return fmt.Errorf("empty response from model")
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), v); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return nil
}

func (g *GeminiPredictor) logFallback(ctx context.Context, op string, err error) {
	log := logger.FromContext(ctx)
	log.Warn().Err(err).Str("op", op).Str("model", g.model).Msg("Model answer unusable, using rule-based prediction")
}

// cleanModelJSON strips Markdown fences and any text around the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

var _ Predictor = (*GeminiPredictor)(nil)
