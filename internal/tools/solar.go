package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/solarflow/solarflow/internal/formula"
	"github.com/solarflow/solarflow/internal/models"
)

// ForecastProvider is the narrow weather collaborator contract the forecast
// tool needs.
type ForecastProvider interface {
	Forecast(ctx context.Context, lat, lon float64) (*models.WeatherSummary, error)
}

// RegisterBuiltins adds the solar calculation and forecast tools. The
// forecast tool is skipped when no weather provider is configured.
func RegisterBuiltins(reg *Registry, eval *formula.Evaluator, weather ForecastProvider) error {
	builtins := []*Tool{
		{
			Descriptor: Descriptor{
				Name:        "calculate_solar_production",
				Description: "Estimate hourly energy production in kWh for an installed capacity under a given irradiance",
				Required:    []string{"capacity_kw", "irradiance"},
				Optional:    []string{"efficiency"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				args := map[string]float64{}
				var err error
				if args["capacity"], err = floatParam(params, "capacity_kw"); err != nil {
					return nil, err
				}
				if args["irradiance"], err = floatParam(params, "irradiance"); err != nil {
					return nil, err
				}
				if _, ok := params["efficiency"]; ok {
					if args["efficiency"], err = floatParam(params, "efficiency"); err != nil {
						return nil, err
					}
				}
				kwh, err := eval.Evaluate("energy.production", args)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{"production_kwh": kwh, "units": "kWh"}, nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "estimate_savings",
				Description: "Estimate annual utility savings from self-generated energy",
				Required:    []string{"annual_production_kwh", "rate_per_kwh"},
				Optional:    []string{"system_cost"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				production, err := floatParam(params, "annual_production_kwh")
				if err != nil {
					return nil, err
				}
				rate, err := floatParam(params, "rate_per_kwh")
				if err != nil {
					return nil, err
				}
				savings, err := eval.Evaluate("financial.annual_savings", map[string]float64{
					"annual_production_kwh": production,
					"rate_per_kwh":          rate,
				})
				if err != nil {
					return nil, err
				}
				out := map[string]interface{}{"annual_savings": savings}
				if _, ok := params["system_cost"]; ok {
					cost, err := floatParam(params, "system_cost")
					if err != nil {
						return nil, err
					}
					payback, err := eval.Evaluate("financial.payback_years", map[string]float64{
						"system_cost":    cost,
						"annual_savings": savings,
					})
					if err != nil {
						return nil, err
					}
					out["payback_years"] = payback
				}
				return out, nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:        "system_sizing",
				Description: "Size a system (kW and panel count) to offset a monthly consumption",
				Required:    []string{"monthly_usage_kwh"},
				Optional:    []string{"sun_hours", "panel_watts"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				usage, err := floatParam(params, "monthly_usage_kwh")
				if err != nil {
					return nil, err
				}
				sunHours := 5.0
				if _, ok := params["sun_hours"]; ok {
					if sunHours, err = floatParam(params, "sun_hours"); err != nil {
						return nil, err
					}
				}
				capacity, err := eval.Evaluate("sizing.capacity_for_usage", map[string]float64{
					"monthly_usage_kwh": usage,
					"sun_hours":         sunHours,
				})
				if err != nil {
					return nil, err
				}
				panelWatts := 400.0
				if _, ok := params["panel_watts"]; ok {
					if panelWatts, err = floatParam(params, "panel_watts"); err != nil {
						return nil, err
					}
				}
				panels, err := eval.Evaluate("sizing.panels_for_capacity", map[string]float64{
					"capacity_kw": capacity,
					"panel_watts": panelWatts,
				})
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"capacity_kw": capacity,
					"panel_count": panels,
					"sun_hours":   sunHours,
				}, nil
			},
		},
		{
			Descriptor: Descriptor{
				Name:                  "panel_recommendation",
				Description:           "Recommend an installable capacity for a roof area using registry panel characteristics",
				Required:              []string{"roof_area_m2"},
				RequiresAuthorization: true,
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				area, err := floatParam(params, "roof_area_m2")
				if err != nil {
					return nil, err
				}
				areaPerKW, err := eval.Constant("panel.area_per_kw")
				if err != nil {
					return nil, err
				}
				efficiency, err := eval.Constant("panel.efficiency")
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"max_capacity_kw":   area / areaPerKW,
					"module_efficiency": efficiency,
				}, nil
			},
		},
	}

	if weather != nil {
		builtins = append(builtins, &Tool{
			Descriptor: Descriptor{
				Name:        "get_weather_forecast",
				Description: "Fetch the current solar weather summary for a location",
				Required:    []string{"lat", "lon"},
				Optional:    []string{"days"},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				lat, err := floatParam(params, "lat")
				if err != nil {
					return nil, err
				}
				lon, err := floatParam(params, "lon")
				if err != nil {
					return nil, err
				}
				return weather.Forecast(ctx, lat, lon)
			},
		})
	}

	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// floatParam coerces a sniffed parameter value to float64. Extracted tool
// calls carry int, float64, bool, or string values.
func floatParam(params map[string]interface{}, name string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s is missing", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %q is not a number", name, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("parameter %s: expected number, got %T", name, v)
	}
}
