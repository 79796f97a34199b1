package dto

import (
	"github.com/radieske/matka-admin-platform/internal/bet-service/repo"
	"github.com/radieske/matka-admin-platform/internal/settlement"
)

type ReportResponse struct {
	Bets     []settlement.Bet `json:"bets"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	Summary  repo.Summary     `json:"summary"`
}

type BetStatusResponse struct {
	BetID  string               `json:"betId"`
	Status settlement.BetStatus `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
