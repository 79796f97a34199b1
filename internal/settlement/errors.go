package settlement

import "errors"

var (
	ErrUnparseable          = errors.New("unparseable result")
	ErrMarketNotFound       = errors.New("market not found")
	ErrUnknownFamily        = errors.New("unknown market family")
	ErrSettlementInProgress = errors.New("settlement already running for market")

	// Erros do ledger; o repositório da carteira devolve estes mesmos valores
	ErrUserNotFound  = errors.New("user not found")
	ErrBetNotPending = errors.New("bet is no longer pending")

	errInvalidAmount = errors.New("bid amount must be positive")
)
