//go:build integration

package postgres_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	app "github.com/jhoicas/Inventario-protocolos/internal/application/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
	"github.com/jhoicas/Inventario-protocolos/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-protocolos/pkg/config"
	"github.com/jhoicas/Inventario-protocolos/pkg/logger"
)

const user = "integration-user"

// setupPool levanta un PostgreSQL efímero, aplica las migraciones y devuelve el pool.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("protocolos"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, logger.Nop()))
	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, id, category, quantity string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, category_id, sku, name, quantity) VALUES ($1, $2, $1, $1, $3)`,
		id, category, decimal.RequireFromString(quantity))
	require.NoError(t, err)
}

func quantityOf(t *testing.T, pool *pgxpool.Pool, id string) decimal.Decimal {
	t.Helper()
	p, err := postgres.NewProductRepository(pool).GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func newLedger(pool *pgxpool.Pool) *app.Ledger {
	return app.NewLedger(postgres.NewTxRunner(pool), postgres.NewProtocolRepository(pool), logger.Nop())
}

func TestPostgres_CrearYAnularProtocolo(t *testing.T) {
	pool := setupPool(t)
	seedProduct(t, pool, "p1", "c1", "10")
	seedProduct(t, pool, "p2", "c1", "3")
	ledger := newLedger(pool)
	ctx := context.Background()

	number, err := ledger.CreateProtocol(ctx, entity.ProtocolTypeSale, []app.MovementInput{
		{ProductID: "p1", QuantityChanged: decimal.NewFromInt(-4)},
		{ProductID: "p2", QuantityChanged: decimal.NewFromInt(-1)},
		{ProductID: "p1", QuantityChanged: decimal.NewFromInt(-1)},
	}, app.CreateOptions{ReferenceID: "V-1", ReferenceType: "sale", CreatedBy: user})
	require.NoError(t, err)
	assert.Equal(t, "PRT-"+strconv.Itoa(time.Now().Year())+"-000001", number)
	assert.True(t, quantityOf(t, pool, "p1").Equal(decimal.NewFromInt(5)))
	assert.True(t, quantityOf(t, pool, "p2").Equal(decimal.NewFromInt(2)))

	got, err := ledger.GetProtocol(ctx, number)
	require.NoError(t, err)
	require.Len(t, got.Movements, 3)
	assert.True(t, got.Movements[2].QuantityBefore.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, user, got.CreatedBy)

	byRef, err := ledger.GetProtocolsByReference(ctx, "sale", "V-1")
	require.NoError(t, err)
	require.Len(t, byRef, 1)

	require.NoError(t, ledger.CancelProtocol(ctx, number, user))
	assert.True(t, quantityOf(t, pool, "p1").Equal(decimal.NewFromInt(10)))
	assert.True(t, quantityOf(t, pool, "p2").Equal(decimal.NewFromInt(3)))

	err = ledger.CancelProtocol(ctx, number, user)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var journal int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`).Scan(&journal))
	assert.Equal(t, 6, journal, "3 entradas de creación y 3 de anulación")

	cancelled := entity.ProtocolStatusCancelled
	list, err := ledger.ListProtocols(ctx, repository.ProtocolFilter{Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].CancelledAt)
}

func TestPostgres_ProductoInexistenteRevierteTodo(t *testing.T) {
	pool := setupPool(t)
	seedProduct(t, pool, "p1", "", "10")
	ledger := newLedger(pool)
	ctx := context.Background()

	_, err := ledger.CreateProtocol(ctx, entity.ProtocolTypeAdjustment, []app.MovementInput{
		{ProductID: "p1", QuantityChanged: decimal.NewFromInt(5)},
		{ProductID: "fantasma", QuantityChanged: decimal.NewFromInt(1)},
	}, app.CreateOptions{CreatedBy: user})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, quantityOf(t, pool, "p1").Equal(decimal.NewFromInt(10)))

	var protocols int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM protocols`).Scan(&protocols))
	assert.Zero(t, protocols)
}

func TestPostgres_NumeracionConcurrenteSinDuplicados(t *testing.T) {
	pool := setupPool(t)
	seedProduct(t, pool, "p1", "", "0")
	ledger := newLedger(pool)
	ctx := context.Background()

	const n = 20
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := ledger.CreateProtocol(ctx, entity.ProtocolTypePurchase,
				[]app.MovementInput{{ProductID: "p1", QuantityChanged: decimal.NewFromInt(1)}},
				app.CreateOptions{CreatedBy: user})
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for number := range numbers {
		assert.False(t, seen[number], "número duplicado %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, quantityOf(t, pool, "p1").Equal(decimal.NewFromInt(n)))
}

func TestPostgres_ContadorArrancaDesdeNumerosExistentes(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO protocols (id, protocol_number, type) VALUES
		(gen_random_uuid(), 'PRT-2020-000001', 'sale'),
		(gen_random_uuid(), 'PRT-2020-000002', 'sale')`)
	require.NoError(t, err)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	counter := postgres.NewProtocolCounterRepository(tx)
	seq, err := counter.NextSequence(ctx, 2020)
	require.NoError(t, err)
	assert.Equal(t, 3, seq)
	seq, err = counter.NextSequence(ctx, 2020)
	require.NoError(t, err)
	assert.Equal(t, 4, seq)
	seq, err = counter.NextSequence(ctx, 2021)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestPostgres_ContadorSaltaHuecosDeNumeracion(t *testing.T) {
	pool := setupPool(t)
	seedProduct(t, pool, "p1", "", "0")
	ctx := context.Background()
	year := time.Now().Year()
	prefix := "PRT-" + strconv.Itoa(year) + "-"
	_, err := pool.Exec(ctx, `INSERT INTO protocols (id, protocol_number, type) VALUES
		(gen_random_uuid(), $1, 'purchase'),
		(gen_random_uuid(), $2, 'purchase')`, prefix+"000001", prefix+"000005")
	require.NoError(t, err)

	ledger := newLedger(pool)
	for _, want := range []string{"000006", "000007"} {
		number, err := ledger.CreateProtocol(ctx, entity.ProtocolTypePurchase,
			[]app.MovementInput{{ProductID: "p1", QuantityChanged: decimal.NewFromInt(1)}},
			app.CreateOptions{CreatedBy: user})
		require.NoError(t, err)
		assert.Equal(t, prefix+want, number)
	}
}
