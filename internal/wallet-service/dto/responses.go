package dto

import "github.com/shopspring/decimal"

type BalanceResponse struct {
	Phone   string          `json:"phone"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
