package model

// BollingerBands holds the upper, middle and lower band values.
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TechnicalIndicators holds the latest value of each indicator used by the
// prediction engine.
type TechnicalIndicators struct {
	RSI        float64        `json:"rsi"`
	MACD       float64        `json:"macd"`
	MACDSignal float64        `json:"macdSignal"`
	SMA        float64        `json:"sma"` // 50-day
	EMA        float64        `json:"ema"` // 20-day
	Bollinger  BollingerBands `json:"bollingerBands"`
	VolumeAvg  float64        `json:"volumeAvg"`
	Source     string         `json:"source"`
}
