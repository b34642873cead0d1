package service

const (
	// Sensitivities per percentage point of shock, as a share of RWA.
	CreditLossRate = 0.02
	MarketLossRate = 0.015

	DefaultUnemploymentShock = 3.0
	DefaultGDPShock          = -4.0

	ScenarioName = "Severely Adverse"

	DefaultRecentRuns = 20
	MaxRecentRuns     = 100
)
