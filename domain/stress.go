package domain

import (
	"fmt"
	"time"
)

type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

type ScenarioInput struct {
	UnemploymentShock float64 `json:"unemploymentShock"`
	GDPShock          float64 `json:"gdpShock"`
}

// Validate rejects shocks that are not finite numbers.
func (s ScenarioInput) Validate() error {
	if !isFinite(s.UnemploymentShock) {
		return fmt.Errorf("%w: unemploymentShock must be a finite number", ErrInvalidInput)
	}
	if !isFinite(s.GDPShock) {
		return fmt.Errorf("%w: gdpShock must be a finite number", ErrInvalidInput)
	}
	return nil
}

type StressLosses struct {
	CreditLoss int64 `json:"creditLoss"`
	MarketLoss int64 `json:"marketLoss"`
	TotalLoss  int64 `json:"totalLoss"`
}

type StressCapital struct {
	BeforeStress int64 `json:"beforeStress"`
	AfterStress  int64 `json:"afterStress"`
}

// StressFigures are the unrounded values the reported result is derived from.
type StressFigures struct {
	CreditLoss           float64
	MarketLoss           float64
	TotalLoss            float64
	CapitalBeforeStress  float64
	CapitalAfterStress   float64
	CapitalAdequacyRatio float64
}

type StressResult struct {
	Scenario             string        `json:"scenario"`
	Inputs               ScenarioInput `json:"inputs"`
	Losses               StressLosses  `json:"losses"`
	Capital              StressCapital `json:"capital"`
	CapitalAdequacyRatio string        `json:"capitalAdequacyRatio"`
	BaselMinimum         float64       `json:"baselMinimum"`
	Result               Verdict       `json:"result"`
	Figures              StressFigures `json:"-"`
}

// StressRun is an evaluation stamped with its identity; the result fields
// are flattened into the run when encoded.
type StressRun struct {
	ID          string    `json:"runId"`
	RequestedAt time.Time `json:"requestedAt"`
	StressResult
	// Explanation is attached on request and never stored.
	Explanation string `json:"explanation,omitempty"`
}
