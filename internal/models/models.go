package models

import "time"

// Interaction represents one persisted turn of a user's conversation.
// Records are immutable once written and accumulate per user.
type Interaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	Response    string    `json:"response"`
	ToolsUsed   []string  `json:"tools_used,omitempty"`
	ContextUsed string    `json:"context_used"`
	Timestamp   time.Time `json:"timestamp"`
	Duration    float64   `json:"duration"` // seconds
}

// Context sources recorded on an Interaction.
const (
	ContextRetrieval       = "retrieval"
	ContextToolBased       = "tool-based"
	ContextWeatherEnhanced = "weather-enhanced"
)

// ToolCall represents a single tool invocation extracted from model output.
// It exists only within one request; only its outcome is persisted.
type ToolCall struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
	Result     string                 `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Duration   float64                `json:"duration"` // seconds
}

// Passage is one ranked context snippet returned by the vector store.
type Passage struct {
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Location is a geographic point attached to a request when the caller
// wants weather-derived enrichment.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// WeatherSummary is the structured forecast summary consumed as
// side-channel notes by the response generator.
type WeatherSummary struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CloudCover    float64   `json:"cloud_cover"` // fraction 0..1
	Irradiance    float64   `json:"irradiance"`  // W/m^2, global horizontal
	TemperatureC  float64   `json:"temperature_c"`
	SunshineHours float64   `json:"sunshine_hours"` // expected hours today
	Condition     string    `json:"condition"`
	ObservedAt    time.Time `json:"observed_at"`
}
