package dto

// ReportQuery são os filtros aceitos em GET /bets
type ReportQuery struct {
	Status   string `validate:"omitempty,oneof=Pending Win Lose"`
	Market   string `validate:"omitempty,max=64"`
	GameType string `validate:"omitempty,max=32"`
	User     string `validate:"omitempty,max=20"`
	Date     string `validate:"omitempty,datetime=02-01-2006"` // dd-MM-yyyy
	Page     int    `validate:"gte=1"`
	PageSize int    `validate:"gte=1,lte=200"`
}
