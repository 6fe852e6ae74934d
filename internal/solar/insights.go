package solar

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/formula"
	"github.com/solarflow/solarflow/internal/models"
)

// Insights derives numeric side-channel notes from a weather summary. The
// notes are injected into the generation prompt alongside retrieved
// passages so answers stay physically grounded.
type Insights struct {
	eval *formula.Evaluator
	log  zerolog.Logger
}

// NewInsights creates an insight builder over the formula evaluator.
func NewInsights(eval *formula.Evaluator, log zerolog.Logger) *Insights {
	return &Insights{
		eval: eval,
		log:  log.With().Str("component", "solar").Logger(),
	}
}

// Notes formats the current conditions and a production estimate for the
// given system capacity. capacityKW <= 0 falls back to the registry's
// default system size.
func (i *Insights) Notes(summary *models.WeatherSummary, capacityKW float64) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("weather summary is nil")
	}

	if capacityKW <= 0 {
		def, err := i.eval.Constant("system.default_capacity_kw")
		if err != nil {
			return "", err
		}
		capacityKW = def
	}

	effective, err := i.eval.Evaluate("irradiance.effective", map[string]float64{
		"ghi":         summary.Irradiance,
		"cloud_cover": summary.CloudCover,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute effective irradiance: %w", err)
	}

	production, err := i.eval.Evaluate("energy.production", map[string]float64{
		"irradiance": effective,
		"capacity":   capacityKW,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute production estimate: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current conditions at (%.4f, %.4f): %s, %.0f%% cloud cover, %.1fC.\n",
		summary.Latitude, summary.Longitude, summary.Condition, summary.CloudCover*100, summary.TemperatureC)
	fmt.Fprintf(&b, "Effective irradiance: %.0f W/m2 (measured GHI %.0f W/m2).\n",
		effective, summary.Irradiance)
	fmt.Fprintf(&b, "Estimated output for a %.1f kW system right now: %.2f kWh per hour.",
		capacityKW, production)
	if summary.SunshineHours > 0 {
		daily, err := i.eval.Evaluate("energy.daily", map[string]float64{
			"capacity":  capacityKW,
			"sun_hours": summary.SunshineHours,
		})
		if err == nil {
			fmt.Fprintf(&b, "\nExpected yield today (%.1f sunshine hours): %.1f kWh.",
				summary.SunshineHours, daily)
		} else {
			i.log.Warn().Err(err).Msg("daily yield estimate failed")
		}
	}
	return b.String(), nil
}
