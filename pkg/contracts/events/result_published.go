package events

import "time"

// Evento publicado após cada publicação de número e passada de liquidação
type ResultPublished struct {
	Family   string    `json:"family"`
	MarketID string    `json:"market_id"`
	Market   string    `json:"market"`
	Number   string    `json:"number"`
	Parsed   bool      `json:"parsed"`
	Won      int       `json:"won"`
	Lost     int       `json:"lost"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	DateKey  string    `json:"date_key"`
	Ts       time.Time `json:"ts"`
}
