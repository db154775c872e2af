package models

// HTTP request shapes. Validation tags drive the shared request validator;
// defaults fill optional fields before validation runs.

type CreateAccountRequest struct {
	AccountID string  `json:"account_id" validate:"required,min=1,max=64"`
	StartCash float64 `json:"start_cash" default:"10000" validate:"gte=0"`
}

type SessionRequest struct {
	AccountID string `json:"account_id" query:"account_id" validate:"required"`
}

type TradeRequest struct {
	AccountID string  `json:"account_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

type AscendRequest struct {
	AccountID string  `json:"account_id" validate:"required"`
	Stake     float64 `json:"stake" validate:"required,gt=0"`
	Direction string  `json:"direction" default:"up" validate:"oneof=up down"`
}

type CrashRequest struct {
	AccountID string  `json:"account_id" validate:"required"`
	Stake     float64 `json:"stake" validate:"required,gt=0"`
}

// HistoryRequest selects a time range of archived ticks. From, To and Limit
// stay strings here; the handler parses them with lenient defaults.
type HistoryRequest struct {
	AccountID string `json:"account_id" query:"account_id" validate:"required"`
	From      string `json:"from" query:"from"`
	To        string `json:"to" query:"to"`
	Step      string `json:"step" query:"step" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit     string `json:"limit" query:"limit"`
}
