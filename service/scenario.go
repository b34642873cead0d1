package service

import "github.com/AMeenalosini/StressTesting/domain"

// ResolveScenario fills absent shocks with the scenario defaults and
// validates the result. A nil pointer covers both a missing field and an
// explicit null.
func ResolveScenario(unemploymentShock, gdpShock *float64) (domain.ScenarioInput, error) {
	scenario := domain.ScenarioInput{
		UnemploymentShock: DefaultUnemploymentShock,
		GDPShock:          DefaultGDPShock,
	}
	if unemploymentShock != nil {
		scenario.UnemploymentShock = *unemploymentShock
	}
	if gdpShock != nil {
		scenario.GDPShock = *gdpShock
	}

	if err := scenario.Validate(); err != nil {
		return domain.ScenarioInput{}, err
	}
	return scenario, nil
}
