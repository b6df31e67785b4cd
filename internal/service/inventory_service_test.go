package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// racingProducts runs onLookup right after the batch read, simulating a concurrent buyer.
type racingProducts struct {
	repository.ProductRepository
	onLookup func()
}

func (r *racingProducts) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	products, err := r.ProductRepository.GetByIDs(ctx, ids)
	if r.onLookup != nil {
		r.onLookup()
	}
	return products, err
}

type flakyProducts struct {
	repository.ProductRepository
	failOn string
}

func (r *flakyProducts) ConditionalDecrement(ctx context.Context, id string, amount int64) (bool, error) {
	if id == r.failOn {
		return false, errors.New("connection reset")
	}
	return r.ProductRepository.ConditionalDecrement(ctx, id, amount)
}

func TestReserve_FulfillsAndPrices(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p1 := f.product(t, "lamp", 1250, 4, seller)
	p2 := f.product(t, "desk", 9900, 1, seller)

	res, err := f.inventory.Reserve(context.Background(), []ReservationLine{
		{ProductID: p1.ID, Quantity: 2},
		{ProductID: p2.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, int64(2*1250+9900), res.Subtotal)
	assert.Equal(t, domain.LineTotal(res.Lines), res.Subtotal)
	assert.Equal(t, seller.ID, res.Lines[0].SellerID)
	assert.Equal(t, "lamp", res.Lines[0].ProductName)
	assert.Equal(t, "", res.Notice())

	assert.Equal(t, int64(2), f.quantity(t, p1.ID))
	assert.Equal(t, int64(0), f.quantity(t, p2.ID))
}

func TestReserve_UnknownProductIsAllOrNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p1 := f.product(t, "lamp", 1250, 4, seller)

	_, err := f.inventory.Reserve(context.Background(), []ReservationLine{
		{ProductID: p1.ID, Quantity: 1},
		{ProductID: "missing", Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownProduct))
	assert.Equal(t, []string{"missing"}, apperrors.ToDomainError(err).Details["product_ids"])
	assert.Equal(t, int64(4), f.quantity(t, p1.ID))
}

func TestReserve_NoFulfillableLines(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p1 := f.product(t, "lamp", 1250, 1, seller)

	_, err := f.inventory.Reserve(context.Background(), []ReservationLine{{ProductID: p1.ID, Quantity: 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoFulfillableLines))
	assert.Equal(t, int64(1), f.quantity(t, p1.ID))
}

func TestReserve_RejectsInvalidQuantities(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p1 := f.product(t, "lamp", 1250, 3, seller)

	tests := []struct {
		name  string
		lines []ReservationLine
	}{
		{name: "empty", lines: nil},
		{name: "zero", lines: []ReservationLine{{ProductID: p1.ID, Quantity: 0}}},
		{name: "negative", lines: []ReservationLine{{ProductID: p1.ID, Quantity: -2}}},
		{name: "no product", lines: []ReservationLine{{Quantity: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.inventory.Reserve(context.Background(), tc.lines)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
	assert.Equal(t, int64(3), f.quantity(t, p1.ID))
}

func TestReserve_LostRaceIsDemoted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	contested := f.product(t, "chair", 500, 5, seller)
	calm := f.product(t, "rug", 700, 5, seller)

	racing := &racingProducts{ProductRepository: f.products}
	racing.onLookup = func() {
		ok, err := f.products.ConditionalDecrement(context.Background(), contested.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
	}
	inventory := NewInventoryService(racing, f.metrics, zap.NewNop())

	res, err := inventory.Reserve(context.Background(), []ReservationLine{
		{ProductID: contested.ID, Quantity: 3},
		{ProductID: calm.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, calm.ID, res.Lines[0].ProductID)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, RejectLostRace, res.Rejected[0].Reason)
	assert.Contains(t, res.Notice(), "chair (requested 3)")
	assert.Equal(t, int64(1), f.quantity(t, contested.ID))
	assert.Equal(t, int64(1), f.metrics.Snapshot().Reservations.LostRaces)
}

func TestReserve_StoreFailureReleasesTakenStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p1 := f.product(t, "lamp", 100, 5, seller)
	p2 := f.product(t, "desk", 100, 5, seller)

	inventory := NewInventoryService(&flakyProducts{ProductRepository: f.products, failOn: p2.ID}, nil, zap.NewNop())
	_, err := inventory.Reserve(context.Background(), []ReservationLine{
		{ProductID: p1.ID, Quantity: 2},
		{ProductID: p2.ID, Quantity: 2},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))
	assert.Equal(t, int64(5), f.quantity(t, p1.ID))
	assert.Equal(t, int64(5), f.quantity(t, p2.ID))
}

func TestReserve_ConcurrentRequestsForSameStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p := f.product(t, "lamp", 100, 5, seller)

	var wg sync.WaitGroup
	var succeeded, failed atomic.Int32
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := f.inventory.Reserve(context.Background(), []ReservationLine{{ProductID: p.ID, Quantity: 3}})
			if err != nil {
				if errors.Is(err, apperrors.ErrNoFulfillableLines) {
					failed.Add(1)
				}
				return
			}
			if len(res.Lines) == 1 && res.Lines[0].Quantity == 3 {
				succeeded.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(1), failed.Load())
	assert.Equal(t, int64(2), f.quantity(t, p.ID))
}

func TestReserve_StockNeverNegativeUnderContention(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p := f.product(t, "lamp", 100, 10, seller)

	var wg sync.WaitGroup
	var reserved atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.inventory.Reserve(context.Background(), []ReservationLine{{ProductID: p.ID, Quantity: 1}})
			if err == nil {
				reserved.Add(res.Lines[0].Quantity)
			}
			q, qerr := f.products.GetByID(context.Background(), p.ID)
			if qerr == nil {
				assert.GreaterOrEqual(t, q.Quantity, int64(0))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), reserved.Load())
	assert.Equal(t, int64(0), f.quantity(t, p.ID))
}

func TestRelease_ReturnsStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p := f.product(t, "lamp", 100, 2, seller)

	err := f.inventory.Release(context.Background(), []domain.OrderLine{{ProductID: p.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.quantity(t, p.ID))

	err = f.inventory.Release(context.Background(), []domain.OrderLine{{ProductID: "gone", Quantity: 1}})
	assert.Error(t, err)
}

func TestReserve_TotalOverflowIsRejectedBeforeDecrement(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	buyer := f.user(t, "buyer@example.com", domain.RoleBuyer, true)
	pricey := f.product(t, "yacht", math.MaxInt64/2+1, 10, seller)
	cheap := f.product(t, "rope", 100, 10, seller)

	tests := []struct {
		name  string
		lines []ReservationLine
	}{
		{name: "line subtotal", lines: []ReservationLine{{ProductID: pricey.ID, Quantity: 2}}},
		{name: "order total", lines: []ReservationLine{
			{ProductID: pricey.ID, Quantity: 1},
			{ProductID: cheap.ID, Quantity: 1},
			{ProductID: pricey.ID, Quantity: 1},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orderSvc.CreateOrder(context.Background(), buyer, tc.lines)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
	assert.Equal(t, int64(10), f.quantity(t, pricey.ID))
	assert.Equal(t, int64(10), f.quantity(t, cheap.ID))
	orders, err := f.orders.List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestReserve_SelfOverDemandIsInsufficientStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p := f.product(t, "stool", 400, 5, seller)

	res, err := f.inventory.Reserve(context.Background(), []ReservationLine{
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 3},
		{ProductID: p.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, int64(5*400), res.Subtotal)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, RejectInsufficientStock, res.Rejected[0].Reason)
	assert.Contains(t, res.Notice(), "stool (requested 3): not available (insufficient_stock)")
	assert.Zero(t, f.quantity(t, p.ID))
	assert.Zero(t, f.metrics.Snapshot().Reservations.LostRaces)
}

func TestReserve_RejectionDetailsHideStockLevels(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", domain.RoleSeller, true)
	p := f.product(t, "vase", 900, 7, seller)

	_, err := f.inventory.Reserve(context.Background(), []ReservationLine{{ProductID: p.ID, Quantity: 8}})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, apperrors.CodeNoFulfillableLines, domainErr.Code)

	raw, err := json.Marshal(domainErr.Details)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"requested":8`)
	assert.NotContains(t, string(raw), "available")
}
