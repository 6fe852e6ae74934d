package agent

import (
	"reflect"
	"testing"
)

func TestExtractToolCallsTypedParameters(t *testing.T) {
	calls := ExtractToolCalls(`USE_TOOL[get_forecast](lat=37.7749, lon=-122.4194, days=7)`)
	if len(calls) != 1 {
		t.Fatalf("extracted %d calls, want 1", len(calls))
	}
	call := calls[0]
	if call.Name != "get_forecast" {
		t.Errorf("name = %s, want get_forecast", call.Name)
	}

	want := map[string]interface{}{
		"lat":  37.7749,
		"lon":  -122.4194,
		"days": 7,
	}
	if !reflect.DeepEqual(call.Parameters, want) {
		t.Errorf("parameters = %#v, want %#v", call.Parameters, want)
	}
}

func TestExtractToolCallsNoMatch(t *testing.T) {
	for _, text := range []string{
		"NO_TOOL",
		"The answer is about 6 kWh.",
		"",
		"USE_TOOL[broken](unterminated",
	} {
		if calls := ExtractToolCalls(text); calls != nil {
			t.Errorf("ExtractToolCalls(%q) = %v, want nil", text, calls)
		}
	}
}

func TestExtractToolCallsMultiple(t *testing.T) {
	text := `First check the weather: USE_TOOL[get_weather_forecast](lat=40.0, lon=-105.0)
Then size the system: USE_TOOL[system_sizing](monthly_usage_kwh=900)`

	calls := ExtractToolCalls(text)
	if len(calls) != 2 {
		t.Fatalf("extracted %d calls, want 2", len(calls))
	}
	if calls[0].Name != "get_weather_forecast" || calls[1].Name != "system_sizing" {
		t.Errorf("call order = %s, %s", calls[0].Name, calls[1].Name)
	}
	if usage, ok := calls[1].Parameters["monthly_usage_kwh"].(int); !ok || usage != 900 {
		t.Errorf("monthly_usage_kwh = %v", calls[1].Parameters["monthly_usage_kwh"])
	}
}

func TestSniffValue(t *testing.T) {
	cases := []struct {
		raw  string
		want interface{}
	}{
		{"true", true},
		{"false", false},
		{"7", 7},
		{"-3", -3},
		{"37.7749", 37.7749},
		{"1e3", 1000.0},
		{`"San Francisco"`, "San Francisco"},
		{"'quoted'", "quoted"},
		{"bare_text", "bare_text"},
		{"1.2.3", "1.2.3"},
	}
	for _, tc := range cases {
		if got := sniffValue(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("sniffValue(%q) = %#v (%T), want %#v (%T)", tc.raw, got, got, tc.want, tc.want)
		}
	}
}

func TestParseParametersQuotedCommas(t *testing.T) {
	calls := ExtractToolCalls(`USE_TOOL[get_weather_forecast](location="San Jose, CA", days=3)`)
	if len(calls) != 1 {
		t.Fatalf("extracted %d calls, want 1", len(calls))
	}
	want := map[string]interface{}{
		"location": "San Jose, CA",
		"days":     3,
	}
	if !reflect.DeepEqual(calls[0].Parameters, want) {
		t.Errorf("parameters = %#v, want %#v", calls[0].Parameters, want)
	}
}

func TestParseParametersIgnoresMalformedPairs(t *testing.T) {
	params := parseParameters("a=1, , noequals, =orphan, b=2")
	want := map[string]interface{}{"a": 1, "b": 2}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("parameters = %#v, want %#v", params, want)
	}
}
