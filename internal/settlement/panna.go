package settlement

// PannaKind é a forma de um número de 3 dígitos
type PannaKind int

const (
	PannaSingle PannaKind = iota + 1 // 3 dígitos distintos
	PannaDouble                      // um dígito repetido duas vezes
	PannaTriple                      // 3 dígitos iguais
)

func (k PannaKind) String() string {
	switch k {
	case PannaSingle:
		return "single"
	case PannaDouble:
		return "double"
	case PannaTriple:
		return "triple"
	}
	return "invalid"
}

func IsSinglePanna(n string) bool {
	return len(n) == 3 && n[0] != n[1] && n[1] != n[2] && n[0] != n[2]
}

func IsDoublePanna(n string) bool {
	if len(n) != 3 {
		return false
	}
	same := 0
	if n[0] == n[1] {
		same++
	}
	if n[1] == n[2] {
		same++
	}
	if n[0] == n[2] {
		same++
	}
	// 2+1 gera exatamente um par igual; 3 iguais geram três
	return same == 1
}

func IsTriplePanna(n string) bool {
	return len(n) == 3 && n[0] == n[1] && n[1] == n[2]
}

// ClassifyPanna retorna a forma do número; false se não tiver 3 caracteres
func ClassifyPanna(n string) (PannaKind, bool) {
	switch {
	case IsSinglePanna(n):
		return PannaSingle, true
	case IsDoublePanna(n):
		return PannaDouble, true
	case IsTriplePanna(n):
		return PannaTriple, true
	}
	return 0, false
}
