package settlement

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Family identifica a categoria de mercado (cada uma com seu formato de resultado)
type Family string

const (
	FamilyMain     Family = "main"
	FamilyStarline Family = "starline"
	FamilyGali     Family = "gali"
)

// ParseFamily aceita os nomes usados nas rotas HTTP
func ParseFamily(s string) (Family, bool) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyMain:
		return FamilyMain, true
	case FamilyStarline:
		return FamilyStarline, true
	case FamilyGali, "gali-disawar", "galidisawar":
		return FamilyGali, true
	}
	return "", false
}

type GameType string

const (
	SingleDigit GameType = "Single Digit"
	DoubleDigit GameType = "Double Digit"
	SinglePanna GameType = "Single Panna"
	DoublePanna GameType = "Double Panna"
	TriplePanna GameType = "Triple Panna"
	HalfSangam  GameType = "Half Sangam"
	FullSangam  GameType = "Full Sangam"
	LeftDigit   GameType = "Left Digit"
	RightDigit  GameType = "Right Digit"
	JodiDigit   GameType = "Jodi Digit"
)

// Session indica qual metade do resultado Main a aposta mira
type Session string

const (
	SessionOpen  Session = "Open"
	SessionClose Session = "Close"
)

// BetStatus só transita Pending -> Win | Lose
type BetStatus string

const (
	StatusPending BetStatus = "Pending"
	StatusWin     BetStatus = "Win"
	StatusLose    BetStatus = "Lose"
)

// NotPublished é o marcador usado pelos operadores para "sem resultado"
const NotPublished = "N/A"

// Market é uma janela de aposta dentro de uma família
type Market struct {
	ID        string    `json:"id"`
	Family    Family    `json:"family"`
	Name      string    `json:"name"`
	OpenTime  string    `json:"openTime"`
	CloseTime string    `json:"closeTime"`
	Number    string    `json:"number"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Published indica se o mercado tem um número publicado
func (m Market) Published() bool {
	return m.Number != "" && m.Number != NotPublished
}

// IsOpen avalia a janela open/close no relógio local (HHMM, só dígitos).
// Janela com open > close atravessa a meia-noite.
func (m Market) IsOpen(now time.Time) bool {
	if m.OpenTime == "" || m.CloseTime == "" {
		return false
	}
	cur := now.Hour()*100 + now.Minute()
	open, closeAt := clockNumber(m.OpenTime), clockNumber(m.CloseTime)
	if open <= closeAt {
		return cur >= open && cur <= closeAt
	}
	return cur >= open || cur <= closeAt
}

func clockNumber(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// Bet ("bid") é uma aposta individual
type Bet struct {
	ID             string           `json:"id" validate:"required"`
	UserPhone      string           `json:"userPhone" validate:"required"`
	SelectedButton string           `json:"selectedButton" validate:"required"`
	GameType       GameType         `json:"gameType" validate:"required"`
	BidNumber      string           `json:"bidNumber" validate:"required"`
	SecondNumber   string           `json:"secondNumber,omitempty"`
	BidAmount      decimal.Decimal  `json:"bidAmount"`
	SessionStatus  Session          `json:"sessionStatus" validate:"omitempty,oneof=Open Close"`
	Status         BetStatus        `json:"status" validate:"required,oneof=Pending Win Lose"`
	WinningAmount  *decimal.Decimal `json:"winningAmount,omitempty"`
	CreatedAt      time.Time        `json:"timestamp"`
}

// Validate checa os campos obrigatórios e normaliza a sessão (vazia = Open)
func (b *Bet) Validate() error {
	if err := validate.Struct(b); err != nil {
		return err
	}
	if !b.BidAmount.IsPositive() {
		return errInvalidAmount
	}
	if b.SessionStatus == "" {
		b.SessionStatus = SessionOpen
	}
	return nil
}

type User struct {
	Phone     string          `json:"phone"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
