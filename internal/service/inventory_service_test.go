package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-barcode-stock/internal/model"
	"go-barcode-stock/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStore is an in-memory implementation of both repository ports. The
// mutex around ChangeStock mirrors the row lock of the real adapter.
type fakeStore struct {
	mu            sync.Mutex
	products      map[string]*model.Product // keyed by barcode
	history       []model.HistoryEntry
	nextProductID uint
	nextHistoryID uint
	failWith      error // when set, every call fails with this
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[string]*model.Product)}
}

func (f *fakeStore) Create(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.products[product.Barcode]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.nextProductID++
	product.ID = f.nextProductID
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	stored := *product
	f.products[product.Barcode] = &stored
	return nil
}

func (f *fakeStore) FindAll(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.products[barcode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ChangeStock(ctx context.Context, barcode string, apply func(product *model.Product) (*model.HistoryEntry, error)) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.products[barcode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	// apply works on a copy; nothing is visible unless it succeeds
	work := *p
	entry, err := apply(&work)
	if err != nil {
		return nil, err
	}

	f.nextHistoryID++
	entry.ID = f.nextHistoryID
	entry.CreatedAt = time.Now()
	work.UpdatedAt = entry.CreatedAt
	*p = work
	f.history = append(f.history, *entry)

	cp := work
	return &cp, nil
}

func (f *fakeStore) FindRecent(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.HistoryEntry, 0, limit)
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.history[i]
		for _, p := range f.products {
			if p.ID == e.ProductID {
				e.ProductName = p.Name
				break
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]repository.StockMovementData, error) {
	return nil, nil
}

func (f *fakeStore) GetOverviewStats(ctx context.Context) (*repository.OverviewStats, error) {
	return nil, nil
}

func (f *fakeStore) historyLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

// fakeBroadcaster records published messages.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *fakeBroadcaster) Publish(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func (b *fakeBroadcaster) last() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.messages) == 0 {
		return nil
	}
	return b.messages[len(b.messages)-1]
}

func newTestService() (InventoryService, *fakeStore, *fakeBroadcaster) {
	store := newFakeStore()
	hub := &fakeBroadcaster{}
	return NewInventoryService(store, store, hub), store, hub
}

func mustAddProduct(t *testing.T, svc InventoryService, barcode, name string) *model.Product {
	t.Helper()
	p, err := svc.AddProduct(context.Background(), barcode, name, "", 0)
	require.NoError(t, err)
	return p
}

func TestAddProduct(t *testing.T) {
	svc, _, hub := newTestService()

	p, err := svc.AddProduct(context.Background(), "123", "Widget", "test widget", 3)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, 0, p.CurrentStock)
	assert.Equal(t, 3, p.MinStock)

	products, err := svc.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Widget", products[0].Name)

	require.Eventually(t, func() bool { return hub.count() >= 1 }, time.Second, 10*time.Millisecond)
	var event struct {
		Type string          `json:"type"`
		Data []model.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hub.last(), &event))
	assert.Equal(t, "products_updated", event.Type)
	require.Len(t, event.Data, 1)
}

func TestAddProduct_DuplicateBarcode(t *testing.T) {
	svc, _, _ := newTestService()
	mustAddProduct(t, svc, "123", "Original")

	_, err := svc.AddProduct(context.Background(), "123", "Impostor", "", 0)
	assert.ErrorIs(t, err, ErrDuplicateBarcode)

	// existing product untouched
	p, err := svc.GetProductByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, "Original", p.Name)

	products, err := svc.GetAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestAddProduct_InvalidInput(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddProduct(context.Background(), "", "No Barcode", "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddProduct(context.Background(), "123", "", "", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddProduct(context.Background(), "123", "Widget", "", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApplyTransaction_FirstStockIn(t *testing.T) {
	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	result, err := svc.ApplyTransaction(context.Background(), "123", 5, model.TxIn, "restock")
	require.NoError(t, err)
	assert.Equal(t, "123", result.Barcode)
	assert.Equal(t, 0, result.BeforeStock)
	assert.Equal(t, 5, result.AfterStock)

	p, err := svc.GetProductByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 5, p.CurrentStock)

	assert.Equal(t, 1, store.historyLen())
}

func TestApplyTransaction_OutThenInsufficient(t *testing.T) {
	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")
	_, err := svc.ApplyTransaction(context.Background(), "123", 10, model.TxIn, "")
	require.NoError(t, err)

	result, err := svc.ApplyTransaction(context.Background(), "123", 3, model.TxOut, "sale")
	require.NoError(t, err)
	assert.Equal(t, 10, result.BeforeStock)
	assert.Equal(t, 7, result.AfterStock)

	entriesBefore := store.historyLen()

	_, err = svc.ApplyTransaction(context.Background(), "123", 8, model.TxOut, "too much")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// no state mutated by the failed OUT
	p, err := svc.GetProductByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 7, p.CurrentStock)
	assert.Equal(t, entriesBefore, store.historyLen())
}

func TestApplyTransaction_UnknownBarcode(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ApplyTransaction(context.Background(), "nope", 1, model.TxIn, "")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestApplyTransaction_InvalidType(t *testing.T) {
	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	_, err := svc.ApplyTransaction(context.Background(), "123", 1, model.TransactionType("SIDEWAYS"), "")
	assert.ErrorIs(t, err, ErrInvalidTransactionType)
	assert.Equal(t, 0, store.historyLen())
}

func TestApplyTransaction_NonPositiveQuantity(t *testing.T) {
	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	for _, qty := range []int{0, -3} {
		_, err := svc.ApplyTransaction(context.Background(), "123", qty, model.TxIn, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 0, store.historyLen())
}

func TestApplyTransaction_HistoryChaining(t *testing.T) {
	svc, _, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	steps := []struct {
		txType model.TransactionType
		qty    int
	}{
		{model.TxIn, 10}, {model.TxOut, 4}, {model.TxIn, 7}, {model.TxOut, 1},
	}
	expected := 0
	for _, s := range steps {
		if s.txType == model.TxIn {
			expected += s.qty
		} else {
			expected -= s.qty
		}
		_, err := svc.ApplyTransaction(context.Background(), "123", s.qty, s.txType, "")
		require.NoError(t, err)
	}

	entries, err := svc.GetHistory(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, len(steps))

	// newest first; walk oldest -> newest to check the chain
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Type == model.TxIn {
			assert.Equal(t, e.BeforeStock+e.Quantity, e.AfterStock)
		} else {
			assert.Equal(t, e.BeforeStock-e.Quantity, e.AfterStock)
		}
		if i < len(entries)-1 {
			assert.Equal(t, entries[i+1].AfterStock, e.BeforeStock, "append-order consistency")
		}
		assert.Equal(t, "Widget", e.ProductName)
	}

	p, err := svc.GetProductByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, expected, p.CurrentStock)
	assert.Equal(t, entries[0].AfterStock, p.CurrentStock)
}

func TestApplyTransaction_ConcurrentOut(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")
	_, err := svc.ApplyTransaction(context.Background(), "123", initialStock, model.TxIn, "")
	require.NoError(t, err)

	var successCount, insufficientCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyTransaction(context.Background(), "123", 1, model.TxOut, "")
			switch {
			case err == nil:
				successCount.Add(1)
			case assert.ErrorIs(t, err, ErrInsufficientStock):
				insufficientCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, int32(totalRequests-initialStock), insufficientCount.Load())

	p, err := svc.GetProductByBarcode(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, 0, p.CurrentStock)

	// one history row per successful OUT plus the opening IN
	assert.Equal(t, initialStock+1, store.historyLen())
}

func TestGetAllProducts_SortedByName(t *testing.T) {
	svc, _, _ := newTestService()
	mustAddProduct(t, svc, "3", "Zebra Label")
	mustAddProduct(t, svc, "1", "Apple Sticker")
	mustAddProduct(t, svc, "2", "Mango Tag")

	products, err := svc.GetAllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Apple Sticker", products[0].Name)
	assert.Equal(t, "Mango Tag", products[1].Name)
	assert.Equal(t, "Zebra Label", products[2].Name)
}

func TestGetHistory_Limits(t *testing.T) {
	svc, _, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")
	for i := 0; i < DefaultHistoryLimit+10; i++ {
		_, err := svc.ApplyTransaction(context.Background(), "123", 1, model.TxIn, "")
		require.NoError(t, err)
	}

	// limit <= 0 falls back to the default
	entries, err := svc.GetHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultHistoryLimit)

	entries, err = svc.GetHistory(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// newest first
	assert.Greater(t, entries[0].ID, entries[1].ID)
}

func TestSnapshotAndInitialData(t *testing.T) {
	svc, _, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")
	_, err := svc.ApplyTransaction(context.Background(), "123", 5, model.TxIn, "")
	require.NoError(t, err)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Products, 1)
	assert.Len(t, snap.History, 1)

	payload, err := svc.InitialData(context.Background())
	require.NoError(t, err)

	var event struct {
		Type string        `json:"type"`
		Data StockSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "initial_data", event.Type)
	assert.Len(t, event.Data.Products, 1)
	assert.Len(t, event.Data.History, 1)
}

func TestStockUpdatedBroadcast(t *testing.T) {
	svc, _, hub := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	// wait for the products_updated from AddProduct first
	require.Eventually(t, func() bool { return hub.count() >= 1 }, time.Second, 10*time.Millisecond)

	_, err := svc.ApplyTransaction(context.Background(), "123", 5, model.TxIn, "restock")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.count() >= 2 }, time.Second, 10*time.Millisecond)

	var event struct {
		Type string `json:"type"`
		Data struct {
			Products    []model.Product      `json:"products"`
			History     []model.HistoryEntry `json:"history"`
			Transaction TransactionResult    `json:"transaction"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hub.last(), &event))
	assert.Equal(t, "stock_updated", event.Type)
	assert.Len(t, event.Data.Products, 1)
	assert.Len(t, event.Data.History, 1)
	assert.Equal(t, 5, event.Data.Transaction.AfterStock)
	assert.Equal(t, "123", event.Data.Transaction.Barcode)
}

func TestStorageUnavailable(t *testing.T) {
	svc, store, _ := newTestService()
	mustAddProduct(t, svc, "123", "Widget")

	store.mu.Lock()
	store.failWith = context.DeadlineExceeded
	store.mu.Unlock()

	_, err := svc.ApplyTransaction(context.Background(), "123", 1, model.TxIn, "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.GetAllProducts(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
