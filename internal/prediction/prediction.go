// Package prediction estimates fees and budgets and summarizes spending.
package prediction

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput reports a request missing required fields.
var ErrInvalidInput = errors.New("Missing required fields")

// FeeRequest describes the student a fee is predicted for.
type FeeRequest struct {
	Course      string  `json:"course" validate:"required"`
	Income      float64 `json:"income" validate:"gte=0"`
	Scholarship bool    `json:"scholarship"`
}

type FeePrediction struct {
	PredictedFee float64 `json:"predicted_fee"`
}

type BudgetRequest struct {
	Expenses float64 `json:"expenses" validate:"gte=0"`
}

type BudgetPrediction struct {
	PredictedBudget float64 `json:"predicted_budget"`
}

// Insights pairs a spending breakdown (percent per category) with advice.
type Insights struct {
	SpendingPatterns map[string]int    `json:"spending_patterns"`
	Insights         map[string]string `json:"insights"`
}

// Predictor is implemented by the rule-based engine and model-backed variants.
type Predictor interface {
	PredictFee(ctx context.Context, req FeeRequest) (FeePrediction, error)
	PredictBudget(ctx context.Context, req BudgetRequest) (BudgetPrediction, error)
	Insights(ctx context.Context) (Insights, error)
}

// BaseFees are annual fees per course; DefaultBaseFee covers the rest.
var BaseFees = map[string]int64{
	"engineering": 500000,
	"medical":     700000,
	"arts":        200000,
	"science":     300000,
}

const (
	DefaultBaseFee = 400000
	// LowIncomeLimit is the income below which the low-income discount applies.
	LowIncomeLimit = 300000
)

var (
	lowIncomeFactor   = decimal.RequireFromString("0.8")
	scholarshipFactor = decimal.RequireFromString("0.7")
	budgetBuffer      = decimal.RequireFromString("1.2")
)

// RuleBased is the deterministic predictor.
type RuleBased struct{}

func (RuleBased) PredictFee(_ context.Context, req FeeRequest) (FeePrediction, error) {
	course := strings.ToLower(strings.TrimSpace(req.Course))
	if course == "" || req.Income < 0 {
		return FeePrediction{}, ErrInvalidInput
	}
	base, ok := BaseFees[course]
	if !ok {
		base = DefaultBaseFee
	}
	fee := decimal.NewFromInt(base)
	if req.Income < LowIncomeLimit {
		fee = fee.Mul(lowIncomeFactor)
	}
	if req.Scholarship {
		fee = fee.Mul(scholarshipFactor)
	}
	return FeePrediction{PredictedFee: fee.Round(2).InexactFloat64()}, nil
}

func (RuleBased) PredictBudget(_ context.Context, req BudgetRequest) (BudgetPrediction, error) {
	if req.Expenses < 0 {
		return BudgetPrediction{}, ErrInvalidInput
	}
	b := decimal.NewFromFloat(req.Expenses).Mul(budgetBuffer)
	return BudgetPrediction{PredictedBudget: b.Round(2).InexactFloat64()}, nil
}

func (RuleBased) Insights(context.Context) (Insights, error) {
	return Insights{
		SpendingPatterns: map[string]int{
			"Rent":          40,
			"Food":          20,
			"Transport":     10,
			"Savings":       15,
			"Entertainment": 10,
			"Others":        5,
		},
		Insights: map[string]string{
			"Savings":   "Your savings ratio is low, try to save at least 20% of your income.",
			"Food":      "Food expenses are high, consider meal planning.",
			"Transport": "Consider using public transport to reduce costs.",
		},
	}, nil
}

// FeeProjection is the multi-year fee outlook shown on the prediction page.
type FeeProjection struct {
	Current       int64   `json:"currentFee"`
	NextYear      int64   `json:"nextYearFee"`
	TwoYears      int64   `json:"twoYearsFee"`
	InflationRate float64 `json:"inflationRate"`
	Confidence    int     `json:"confidence"`
}

// SeedProjection is the projection shown before a model is consulted.
func SeedProjection() FeeProjection {
	return FeeProjection{Current: 85000, NextYear: 92000, TwoYears: 98500, InflationRate: 7.5, Confidence: 85}
}

var _ Predictor = RuleBased{}
