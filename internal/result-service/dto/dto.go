package dto

import (
	"github.com/radieske/matka-admin-platform/internal/result-service/repo"
	"github.com/radieske/matka-admin-platform/internal/settlement"
)

// PublishResultRequest é o número digitado pelo operador ("N/A" bloqueia a liquidação)
type PublishResultRequest struct {
	Number string `json:"number" validate:"required,max=16"`
}

type MarketView struct {
	settlement.Market
	IsOpen bool `json:"isOpen"`
}

type ClearResponse struct {
	Family  settlement.Family `json:"family"`
	Cleared int               `json:"cleared"`
}

type DailyResultsResponse struct {
	Family  settlement.Family `json:"family"`
	DateKey string            `json:"dateKey"`
	Results map[string]string `json:"results"`
	Cached  bool              `json:"cached"`
}

type DailyStatsResponse struct {
	Family  settlement.Family `json:"family"`
	DateKey string            `json:"dateKey"`
	Markets []repo.DailyStat  `json:"markets"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
