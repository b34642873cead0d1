package domain

import (
	"fmt"
	"math"
)

// BankProfile is the balance-sheet snapshot a scenario is applied to.
// It is loaded once at startup and passed by value.
type BankProfile struct {
	Name               string  `json:"bankName" yaml:"bank_name"`
	Tier1Capital       float64 `json:"tier1Capital" yaml:"tier1_capital"`
	RiskWeightedAssets float64 `json:"riskWeightedAssets" yaml:"risk_weighted_assets"`
	BaselMinimumCAR    float64 `json:"baselMinimumCAR" yaml:"basel_minimum_car"`
}

// DefaultBankProfile returns the demo bank used when no profile file is configured.
func DefaultBankProfile() BankProfile {
	return BankProfile{
		Name:               "Demo Global Bank",
		Tier1Capital:       120_000_000,
		RiskWeightedAssets: 1_000_000_000,
		BaselMinimumCAR:    10.5,
	}
}

// Validate reports an ErrInvalidProfile when any figure is unusable.
func (p BankProfile) Validate() error {
	if !isFinite(p.Tier1Capital) || p.Tier1Capital <= 0 {
		return fmt.Errorf("%w: tier1Capital must be a positive finite number, got %v", ErrInvalidProfile, p.Tier1Capital)
	}
	// Reported capital figures are whole int64 units.
	if p.Tier1Capital >= float64(math.MaxInt64) {
		return fmt.Errorf("%w: tier1Capital %v is too large to report", ErrInvalidProfile, p.Tier1Capital)
	}
	if !isFinite(p.RiskWeightedAssets) || p.RiskWeightedAssets <= 0 {
		return fmt.Errorf("%w: riskWeightedAssets must be a positive finite number, got %v", ErrInvalidProfile, p.RiskWeightedAssets)
	}
	if !isFinite(p.BaselMinimumCAR) || p.BaselMinimumCAR <= 0 {
		return fmt.Errorf("%w: baselMinimumCAR must be a positive finite number, got %v", ErrInvalidProfile, p.BaselMinimumCAR)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
