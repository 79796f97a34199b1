package settlement

import (
	"fmt"
	"strings"
)

// SessionPolicy define quando apostas Open são liquidadas em mercados Main
type SessionPolicy string

const (
	// PolicyStrict só liquida Open enquanto o resultado tem 2 partes (comportamento histórico)
	PolicyStrict SessionPolicy = "strict"
	// PolicyLenient liquida Open sempre que a metade Open estiver publicada
	PolicyLenient SessionPolicy = "lenient"
)

func ParseSessionPolicy(s string) SessionPolicy {
	if SessionPolicy(strings.ToLower(s)) == PolicyLenient {
		return PolicyLenient
	}
	return PolicyStrict
}

// Result é o número publicado decomposto conforme a família
type Result struct {
	Family Family
	Raw    string

	// Main e Starline
	OpenPanna string
	// Main: parte do meio (1 dígito só com Open, 2 dígitos com Open+Close)
	Middle     string
	ClosePanna string
	// Main: true quando a metade Close já foi sorteada
	Full bool

	// Starline
	Digit string

	// Gali Disawar
	Left  string
	Right string
	Jodi  string
}

// Applicable informa se uma aposta da sessão dada pode ser avaliada neste resultado.
// Só tem efeito na família Main.
func (r Result) Applicable(s Session, policy SessionPolicy) bool {
	if r.Family != FamilyMain {
		return true
	}
	switch s {
	case SessionClose:
		return r.Full
	case SessionOpen:
		return !r.Full || policy == PolicyLenient
	}
	return false
}

// SessionDigit é o dígito único da sessão: Open usa o meio como está (ou o
// primeiro caractere quando o resultado é completo), Close usa o último caractere.
func (r Result) SessionDigit(s Session) string {
	if r.Middle == "" {
		return ""
	}
	if s == SessionClose {
		return r.Middle[len(r.Middle)-1:]
	}
	if r.Full {
		return r.Middle[:1]
	}
	return r.Middle
}

// SessionPanna é a metade panna correspondente à sessão
func (r Result) SessionPanna(s Session) string {
	if s == SessionClose {
		return r.ClosePanna
	}
	return r.OpenPanna
}

// ResultParser decodifica o campo number de um mercado
type ResultParser interface {
	Family() Family
	Parse(raw string) (Result, error)
}

// ParserFor devolve a estratégia de parsing da família
func ParserFor(f Family) (ResultParser, error) {
	switch f {
	case FamilyMain:
		return MainParser{}, nil
	case FamilyStarline:
		return StarlineParser{}, nil
	case FamilyGali:
		return GaliParser{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, f)
}

// MainParser: openPanna-meio[-closePanna]
type MainParser struct{}

func (MainParser) Family() Family { return FamilyMain }

func (MainParser) Parse(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	r := Result{Family: FamilyMain, Raw: raw}
	if raw == "" || raw == NotPublished {
		return r, fmt.Errorf("%w: main result not published", ErrUnparseable)
	}
	parts := strings.Split(raw, "-")
	switch len(parts) {
	case 2:
		r.OpenPanna, r.Middle = parts[0], parts[1]
	case 3:
		r.OpenPanna, r.Middle, r.ClosePanna = parts[0], parts[1], parts[2]
		r.Full = true
	default:
		return r, fmt.Errorf("%w: main result %q has %d parts", ErrUnparseable, raw, len(parts))
	}
	return r, nil
}

// StarlineParser: XYZ-A
type StarlineParser struct{}

func (StarlineParser) Family() Family { return FamilyStarline }

func (StarlineParser) Parse(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	r := Result{Family: FamilyStarline, Raw: raw}
	panna, digit, ok := strings.Cut(raw, "-")
	if !ok || len(panna) != 3 || len(digit) != 1 || !allDigits(panna+digit) {
		return r, fmt.Errorf("%w: starline result %q is not XYZ-A", ErrUnparseable, raw)
	}
	r.OpenPanna, r.Digit = panna, digit
	return r, nil
}

// GaliParser: dois caracteres, esquerdo + direito = jodi
type GaliParser struct{}

func (GaliParser) Family() Family { return FamilyGali }

func (GaliParser) Parse(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	r := Result{Family: FamilyGali, Raw: raw}
	if len(raw) != 2 {
		return r, fmt.Errorf("%w: gali result %q must have 2 digits", ErrUnparseable, raw)
	}
	r.Left, r.Right, r.Jodi = raw[:1], raw[1:], raw
	return r, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
