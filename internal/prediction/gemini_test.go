package prediction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	text   string
	err    error
	prompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.prompt = contents[0].Parts[0].Text
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiPredictor_PredictFee(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeModels
		want float64
	}{
		{"model answer", &fakeModels{text: "```json\n{\"predicted_fee\": 512000}\n```"}, 512000},
		{"model error falls back", &fakeModels{err: errors.New("quota")}, 500000},
		{"garbage falls back", &fakeModels{text: "I cannot help with that"}, 500000},
		{"non-positive falls back", &fakeModels{text: `{"predicted_fee": 0}`}, 500000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGeminiPredictor(tt.fake, "")
			got, err := g.PredictFee(context.Background(), FeeRequest{Course: "engineering", Income: 500000})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PredictedFee)
		})
	}
}

func TestGeminiPredictor_PromptCarriesBaseline(t *testing.T) {
	fake := &fakeModels{text: `{"predicted_budget": 13000}`}
	got, err := newGeminiPredictor(fake, "m").PredictBudget(context.Background(), BudgetRequest{Expenses: 10000})
	require.NoError(t, err)
	assert.Equal(t, 13000.0, got.PredictedBudget)
	assert.Contains(t, fake.prompt, "12000.00")
}

func TestGeminiPredictor_InvalidInputNotSentToModel(t *testing.T) {
	fake := &fakeModels{}
	_, err := newGeminiPredictor(fake, "").PredictFee(context.Background(), FeeRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, fake.prompt)
}

func TestGeminiPredictor_Insights(t *testing.T) {
	fake := &fakeModels{text: `Sure! {"spending_patterns": {"Rent": 50, "Food": 50}, "insights": {"Rent": "Share a flat."}}`}
	got, err := newGeminiPredictor(fake, "").Insights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, got.SpendingPatterns["Rent"])
	assert.Equal(t, "Share a flat.", got.Insights["Rent"])

	fake.text = "{}"
	got, err = newGeminiPredictor(fake, "").Insights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, got.SpendingPatterns["Rent"])
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{`Here you go: {"a":1} hope it helps`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}
