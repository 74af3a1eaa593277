package stock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockyard-erp/stockyard/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	movements []Movement
	inactive  map[int64]bool
	missing   map[int64]bool
	loads     int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, inactive: make(map[int64]bool), missing: make(map[int64]bool)}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) ProductIsActive(ctx context.Context, productID int64) (bool, error) {
	if m.missing[productID] {
		return false, shared.ErrNotFound
	}
	return !m.inactive[productID], nil
}

func (m *memoryRepo) InsertMovement(ctx context.Context, movement Movement) (Movement, error) {
	movement.ID = m.nextID
	m.nextID++
	movement.CreatedAt = time.Now()
	m.movements = append(m.movements, movement)
	return movement, nil
}

func (m *memoryRepo) CurrentStock(ctx context.Context, productID int64) (int, error) {
	m.loads++
	level := 0
	for _, mv := range m.movements {
		if mv.ProductID == productID && mv.DeletedAt == nil {
			level += mv.SignedQuantity()
		}
	}
	return level, nil
}

func (m *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter, page shared.Pagination) ([]MovementRow, int, error) {
	var out []MovementRow
	for _, mv := range m.movements {
		if filter.ProductID != 0 && mv.ProductID != filter.ProductID {
			continue
		}
		if filter.Kind != "" && mv.Kind != filter.Kind {
			continue
		}
		out = append(out, MovementRow{Movement: mv})
	}
	return out, len(out), nil
}

func newTestService(t *testing.T, repo *memoryRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, NewLevelCache(client, time.Minute), nil, nil)
}

func TestSignedQuantity(t *testing.T) {
	require.Equal(t, 5, Movement{Kind: KindIn, Quantity: 5}.SignedQuantity())
	require.Equal(t, -3, Movement{Kind: KindOut, Quantity: 3}.SignedQuantity())
	require.Equal(t, 0, Movement{Kind: KindAdjustment, Quantity: 7}.SignedQuantity())
	require.Equal(t, 0, Movement{Kind: KindReturn, Quantity: 2}.SignedQuantity())
}

func TestDerivedStockLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	record := func(kind MovementKind, reason MovementReason, qty int) {
		_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, Kind: kind, Reason: reason, Quantity: qty})
		require.NoError(t, err)
	}

	record(KindIn, ReasonPurchase, 10)
	record(KindOut, ReasonSale, 3)
	record(KindAdjustment, ReasonInventoryAdj, 100)
	record(KindReturn, ReasonCustomerReturn, 4)

	level, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 7, level)
}

func TestStockMayGoNegative(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Reason: ReasonSale, Quantity: 5})
	require.NoError(t, err)

	level, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, -5, level)
}

func TestRecordMovementValidation(t *testing.T) {
	svc := newTestService(t, newMemoryRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input MovementInput
	}{
		{"missing product", MovementInput{Kind: KindIn, Reason: ReasonPurchase, Quantity: 1}},
		{"bad kind", MovementInput{ProductID: 1, Kind: MovementKind("TRANSFER"), Reason: ReasonPurchase, Quantity: 1}},
		{"bad reason", MovementInput{ProductID: 1, Kind: KindIn, Reason: MovementReason("GIFT"), Quantity: 1}},
		{"zero quantity", MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase}},
		{"negative quantity", MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: -2}},
		{"negative price", MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: 1, UnitPrice: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMovement(ctx, tc.input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestRecordMovementInactiveProduct(t *testing.T) {
	repo := newMemoryRepo()
	repo.inactive[2] = true
	svc := newTestService(t, repo)

	_, err := svc.RecordMovement(context.Background(), MovementInput{ProductID: 2, Kind: KindIn, Reason: ReasonPurchase, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.movements)
}

func TestRecordMovementStampsOccurredAt(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)

	created, err := svc.RecordMovement(context.Background(), MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: 1})
	require.NoError(t, err)
	require.False(t, created.OccurredAt.IsZero())

	explicit := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	created, err = svc.RecordMovement(context.Background(), MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: 1, OccurredAt: explicit})
	require.NoError(t, err)
	require.Equal(t, explicit, created.OccurredAt)
}

func TestCurrentStockUsesCacheBetweenWrites(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: 10})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		level, err := svc.CurrentStock(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 10, level)
	}
	require.Equal(t, 1, repo.loads)

	// A write invalidates, the next read recomputes.
	_, err = svc.RecordMovement(ctx, MovementInput{ProductID: 1, Kind: KindOut, Reason: ReasonSale, Quantity: 4})
	require.NoError(t, err)

	level, err := svc.CurrentStock(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 6, level)
	require.Equal(t, 2, repo.loads)
}

func TestIsBelowThresholdBoundary(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.RecordMovement(ctx, MovementInput{ProductID: 1, Kind: KindIn, Reason: ReasonPurchase, Quantity: 10})
	require.NoError(t, err)

	below, err := svc.IsBelowThreshold(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, below)

	below, err = svc.IsBelowThreshold(ctx, 1, 9)
	require.NoError(t, err)
	require.False(t, below)
}

func TestMovementValue(t *testing.T) {
	require.InDelta(t, 25.0, Movement{Kind: KindOut, Quantity: 5, UnitPrice: 5}.Value(), 0.001)
	require.InDelta(t, 0.0, Movement{Kind: KindOut, Quantity: 5}.Value(), 0.001)
}
