package models

// Requests for the rankings HTTP endpoints. Defined in domain for consistency and reuse.

type RankingsRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Dimension string `query:"dimension" json:"dimension" default:"weekday" validate:"oneof=weekday day week month weekofmonth"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"5000" validate:"gte=1,lte=50000"`
}

type AnalyzeRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	From   string `json:"from"`
	To     string `json:"to"`
}
