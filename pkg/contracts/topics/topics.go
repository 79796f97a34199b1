package topics

const (
	// Resultados
	ResultPublished = "result_published"

	// Apostas
	BetSettled = "bet_settled"

	// Falhas de liquidação (conferência manual)
	BetSettlementFailed = "bet_settlement_failed"

	// DLQs
	BetSettledDLQ = "bet_settled_dlq"
)
