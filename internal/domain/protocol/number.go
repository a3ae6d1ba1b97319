package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPrefix prefijo fijo de todos los números de protocolo.
const NumberPrefix = "PRT"

// sequenceDigits ancho de la secuencia anual (se rellena con ceros).
const sequenceDigits = 6

// MaxSequence mayor secuencia representable en un año.
const MaxSequence = 999999

// Prefix devuelve "PRT-<año>-": todos los números del año comparten este prefijo.
func Prefix(year int) string {
	return fmt.Sprintf("%s-%d-", NumberPrefix, year)
}

// FormatNumber arma el número externo PRT-<año>-<secuencia de 6 dígitos>.
func FormatNumber(year, seq int) (string, error) {
	if year <= 0 {
		return "", fmt.Errorf("año inválido: %d", year)
	}
	if seq <= 0 || seq > MaxSequence {
		return "", fmt.Errorf("secuencia fuera de rango: %d", seq)
	}
	return fmt.Sprintf("%s%0*d", Prefix(year), sequenceDigits, seq), nil
}

// ParseNumber descompone un número de protocolo en año y secuencia.
func ParseNumber(number string) (year, seq int, err error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != NumberPrefix || len(parts[2]) != sequenceDigits {
		return 0, 0, fmt.Errorf("número de protocolo inválido: %q", number)
	}
	year, err = strconv.Atoi(parts[1])
	if err != nil || year <= 0 {
		return 0, 0, fmt.Errorf("número de protocolo inválido: %q", number)
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq <= 0 {
		return 0, 0, fmt.Errorf("número de protocolo inválido: %q", number)
	}
	return year, seq, nil
}
