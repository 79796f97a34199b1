package dto

import "github.com/shopspring/decimal"

// AdjustBalanceRequest é a edição manual de saldo feita pelo operador
type AdjustBalanceRequest struct {
	Mode          string          `json:"mode" validate:"required,oneof=add deduct set"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason" validate:"required,max=200"`
	AllowNegative bool            `json:"allowNegative,omitempty"`
}
