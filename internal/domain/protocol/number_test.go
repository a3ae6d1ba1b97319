package protocol_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/protocol"
)

func TestFormatNumber(t *testing.T) {
	n, err := protocol.FormatNumber(2026, 1)
	require.NoError(t, err)
	assert.Equal(t, "PRT-2026-000001", n)

	n, err = protocol.FormatNumber(2026, 999999)
	require.NoError(t, err)
	assert.Equal(t, "PRT-2026-999999", n)

	_, err = protocol.FormatNumber(2026, 0)
	assert.Error(t, err)
	_, err = protocol.FormatNumber(2026, 1_000_000)
	assert.Error(t, err, "la secuencia no puede desbordar los 6 dígitos")
}

func TestParseNumber(t *testing.T) {
	year, seq, err := protocol.ParseNumber("PRT-2025-000042")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 42, seq)

	for _, bad := range []string{"", "PRT-2025-42", "XYZ-2025-000001", "PRT-abcd-000001", "PRT-2025-000000", "PRT-2025-00000a"} {
		_, _, err := protocol.ParseNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrefix_CompartidoPorElAnio(t *testing.T) {
	a, _ := protocol.FormatNumber(2026, 7)
	b, _ := protocol.FormatNumber(2026, 8)
	assert.Equal(t, protocol.Prefix(2026), a[:len(protocol.Prefix(2026))])
	assert.Equal(t, protocol.Prefix(2026), b[:len(protocol.Prefix(2026))])
	assert.Less(t, a, b, "con relleno de ceros el orden lexicográfico sigue la secuencia")
}

func TestNewMovement_AntesDespues(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := protocol.NewMovement("p1", "prod", 0, decimal.RequireFromString("10.1"), decimal.RequireFromString("-0.3"), now)

	assert.True(t, m.QuantityAfter.Equal(decimal.RequireFromString("9.8")), "sin deriva de coma flotante")
	assert.True(t, protocol.Consistent(m))

	m.QuantityAfter = decimal.NewFromInt(1)
	assert.False(t, protocol.Consistent(m))
}

func TestNotas(t *testing.T) {
	assert.Equal(t, "Protocolo PRT-2026-000001", protocol.JournalNote("PRT-2026-000001", ""))
	assert.Equal(t, "Protocolo PRT-2026-000001: venta 9", protocol.JournalNote("PRT-2026-000001", "venta 9"))
	assert.Equal(t, "Anulación protocolo PRT-2026-000001", protocol.CancellationNote("PRT-2026-000001"))
}
