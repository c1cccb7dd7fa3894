package model

import "time"

// Sentiment is a coarse label for a prediction's direction.
type Sentiment string

const (
	Bullish Sentiment = "Bullish"
	Bearish Sentiment = "Bearish"
	Neutral Sentiment = "Neutral"
)

// Action is the recommended trade for a prediction.
type Action string

const (
	Buy  Action = "Buy"
	Sell Action = "Sell"
	Hold Action = "Hold"
)

// Action returns the recommended action paired with the sentiment.
func (s Sentiment) Action() Action {
	switch s {
	case Bullish:
		return Buy
	case Bearish:
		return Sell
	default:
		return Hold
	}
}

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"rawScore"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary,omitempty"`
}

// Prediction is the output of the strategy engine for one symbol.
type Prediction struct {
	Symbol                 string              `json:"symbol"`
	Price                  float64             `json:"price"`
	PredictedPrice         float64             `json:"predictedPrice"`
	PredictedChange        float64             `json:"predictedChange"`
	PredictedChangePercent float64             `json:"predictedChangePercent"`
	TimeFrame              string              `json:"timeFrame"`
	ConfidenceScore        float64             `json:"confidenceScore"`
	Sentiment              Sentiment           `json:"sentiment"`
	RecommendedAction      Action              `json:"recommendedAction"`
	Reasons                []string            `json:"reasons"`
	Indicators             TechnicalIndicators `json:"technicalIndicators"`
	Factors                []FactorScore       `json:"factors"`
	TotalScore             float64             `json:"totalScore"`
	LastUpdated            time.Time           `json:"lastUpdated"`
	Fallback               bool                `json:"isFallback"`
}
