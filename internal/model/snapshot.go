package model

// Snapshot is the daily market document the dashboard is driven by.
type Snapshot struct {
	Date           string         `json:"date"`
	MarketRegime   MarketRegime   `json:"market_regime"`
	RiskIndicators RiskIndicators `json:"risk_indicators"`
	CrossAssets    []CrossAsset   `json:"cross_assets"`
	AssetMatrix    []AssetRow     `json:"asset_expert_matrix"`
	Crypto         []CryptoRow    `json:"crypto_snapshot"`
	Narratives     []string       `json:"key_narratives"`
}

type MarketRegime struct {
	Name             string  `json:"overall_regime_name"`
	SentimentScore   float64 `json:"global_sentiment_score"`
	RiskMode         string  `json:"market_risk_mode"`
	VolatilityRegime string  `json:"volatility_regime"`
	Comment          string  `json:"short_comment"`
}

type RiskIndicators struct {
	VIX           float64 `json:"vix_level"`
	VIXPercentile float64 `json:"vix_1y_percentile"`
	MOVE          float64 `json:"move_level"`
	IGSpreadBps   float64 `json:"ig_spread_bps"`
	HYSpreadBps   float64 `json:"hy_spread_bps"`
	CreditComment string  `json:"credit_comment"`
}

type CrossAsset struct {
	Name           string  `json:"name"`
	Ticker         string  `json:"ticker"`
	Region         string  `json:"region"`
	AssetClass     string  `json:"asset_class"`
	Level          float64 `json:"level"`
	Chg1DPct       float64 `json:"chg_1d_pct"`
	Chg5DPct       float64 `json:"chg_5d_pct"`
	Chg1MPct       float64 `json:"chg_1m_pct"`
	ChgYTDPct      float64 `json:"chg_ytd_pct"`
	RealizedVol30D float64 `json:"realized_vol_30d_pct"`
	DrawdownPct    float64 `json:"drawdown_from_1y_high_pct"`
}

// AssetRow is one line of the expert matrix. Score fields are pointers so a
// missing field can be told apart from an explicit zero.
type AssetRow struct {
	Ticker         string   `json:"ticker"`
	Name           string   `json:"name"`
	AssetClass     string   `json:"asset_class"`
	Price          float64  `json:"price"`
	Chg1DPct       float64  `json:"chg_1d_pct"`
	Chg5DPct       float64  `json:"chg_5d_pct"`
	Chg1MPct       float64  `json:"chg_1m_pct"`
	ChgYTDPct      float64  `json:"chg_ytd_pct"`
	RealizedVol30D float64  `json:"realized_vol_30d_pct"`
	DrawdownPct    float64  `json:"drawdown_from_1y_high_pct"`
	MacroScore     *float64 `json:"macro_score"`
	TechnicalScore *float64 `json:"technical_score"`
	SentimentScore *float64 `json:"sentiment_score"`
	RiskScore      *float64 `json:"risk_score"`
	Rationale      string   `json:"short_rationale"`
}

type CryptoRow struct {
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Chg1DPct float64 `json:"chg_1d_pct"`
	Chg7DPct float64 `json:"chg_7d_pct"`
	Chg1MPct float64 `json:"chg_1m_pct"`
	Comment  string  `json:"dominance_comment"`
}

func (r AssetRow) Info() AssetInfo {
	return AssetInfo{
		Ticker:         r.Ticker,
		Name:           r.Name,
		AssetClass:     r.AssetClass,
		RealizedVol30D: r.RealizedVol30D,
		Rationale:      r.Rationale,
	}
}

// FactorScores returns the row's scores; absent fields read as 0.0.
func (r AssetRow) FactorScores() FactorScoreSet {
	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	return FactorScoreSet{
		FactorMacro:     deref(r.MacroScore),
		FactorTechnical: deref(r.TechnicalScore),
		FactorSentiment: deref(r.SentimentScore),
		FactorRisk:      deref(r.RiskScore),
	}
}

// Row returns the matrix row for ticker, if present.
func (s *Snapshot) Row(ticker string) (AssetRow, bool) {
	for _, r := range s.AssetMatrix {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return AssetRow{}, false
}
