package service

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/AMeenalosini/StressTesting/domain"
)

// maxReportable is 2^63, the first magnitude an int64 cannot hold.
const maxReportable = float64(math.MaxInt64)

// roundCurrency rounds to the nearest whole currency unit, halves toward +Inf.
// Callers check reportable first.
func roundCurrency(value float64) int64 {
	return int64(math.Floor(value + 0.5))
}

// reportable reports whether value rounds to a whole unit that fits an int64.
// NaN and infinities never do.
func reportable(value float64) bool {
	r := math.Floor(value + 0.5)
	return r >= -maxReportable && r < maxReportable
}

// formatRatio renders a percentage with exactly two decimals. The exact
// binary value is rounded half away from zero and a negative ratio keeps its
// sign even when it rounds to zero: 1.005 is "1.00", -0.001 is "-0.00".
func formatRatio(value float64) string {
	exact := decimal.RequireFromString(strconv.FormatFloat(math.Abs(value), 'f', 30, 64))
	if value < 0 {
		return "-" + exact.StringFixed(2)
	}
	return exact.StringFixed(2)
}

// CreditLoss is linear in the unemployment shock; negative shocks reduce it.
func CreditLoss(unemploymentShock, riskWeightedAssets float64) float64 {
	return unemploymentShock * CreditLossRate * riskWeightedAssets
}

// MarketLoss depends only on the magnitude of the GDP shock.
func MarketLoss(gdpShock, riskWeightedAssets float64) float64 {
	return math.Abs(gdpShock) * MarketLossRate * riskWeightedAssets
}

// CapitalAdequacyRatio returns capital as a percentage of risk-weighted assets.
func CapitalAdequacyRatio(capitalAfterStress, riskWeightedAssets float64) (float64, error) {
	if !(riskWeightedAssets > 0) {
		return 0, fmt.Errorf("%w: riskWeightedAssets must be positive, got %v", domain.ErrInvalidProfile, riskWeightedAssets)
	}
	return capitalAfterStress / riskWeightedAssets * 100, nil
}

// Evaluate applies a scenario to a bank profile. It has no side effects and
// is safe to call concurrently.
func Evaluate(
	profile domain.BankProfile,
	scenario domain.ScenarioInput,
) (domain.StressResult, error) {

	if err := profile.Validate(); err != nil {
		return domain.StressResult{}, err
	}
	if err := scenario.Validate(); err != nil {
		return domain.StressResult{}, err
	}

	rwa := profile.RiskWeightedAssets

	creditLoss := CreditLoss(scenario.UnemploymentShock, rwa)
	marketLoss := MarketLoss(scenario.GDPShock, rwa)
	totalLoss := creditLoss + marketLoss

	capitalAfter := profile.Tier1Capital - totalLoss
	car, err := CapitalAdequacyRatio(capitalAfter, rwa)
	if err != nil {
		return domain.StressResult{}, err
	}

	// Finite shocks can still overflow once scaled by the asset base.
	for _, v := range []float64{creditLoss, marketLoss, totalLoss, capitalAfter} {
		if !reportable(v) {
			return domain.StressResult{}, fmt.Errorf("%w: shocks overflow the loss model", domain.ErrInvalidInput)
		}
	}
	if math.IsInf(car, 0) || math.IsNaN(car) {
		return domain.StressResult{}, fmt.Errorf("%w: shocks overflow the loss model", domain.ErrInvalidInput)
	}

	// The verdict uses the unrounded ratio; rounding is for display only.
	verdict := domain.VerdictFail
	if car >= profile.BaselMinimumCAR {
		verdict = domain.VerdictPass
	}

	return domain.StressResult{
		Scenario: ScenarioName,
		Inputs:   scenario,
		Losses: domain.StressLosses{
			CreditLoss: roundCurrency(creditLoss),
			MarketLoss: roundCurrency(marketLoss),
			TotalLoss:  roundCurrency(totalLoss),
		},
		Capital: domain.StressCapital{
			BeforeStress: roundCurrency(profile.Tier1Capital),
			AfterStress:  roundCurrency(capitalAfter),
		},
		CapitalAdequacyRatio: formatRatio(car),
		BaselMinimum:         profile.BaselMinimumCAR,
		Result:               verdict,
		Figures: domain.StressFigures{
			CreditLoss:           creditLoss,
			MarketLoss:           marketLoss,
			TotalLoss:            totalLoss,
			CapitalBeforeStress:  profile.Tier1Capital,
			CapitalAfterStress:   capitalAfter,
			CapitalAdequacyRatio: car,
		},
	}, nil
}
