package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go-barcode-stock/internal/model"
	"go-barcode-stock/internal/repository"

	"gorm.io/gorm"
)

const (
	// Default (dan maksimum) jumlah history yang dikirim ke observer
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	writeTimeout = 5 * time.Second
)

// Broadcaster adalah sisi publish dari live-update channel.
// Diimplementasikan oleh ws.Hub.
type Broadcaster interface {
	Publish(message []byte)
}

// TransactionResult adalah snapshot hasil satu transaksi stok.
type TransactionResult struct {
	ProductID   uint   `json:"product_id"`
	Barcode     string `json:"barcode"`
	Name        string `json:"name"`
	BeforeStock int    `json:"before_stock"`
	AfterStock  int    `json:"after_stock"`
}

// StockSnapshot adalah payload gabungan untuk observer: daftar product
// lengkap + history terbaru.
type StockSnapshot struct {
	Products []model.Product      `json:"products"`
	History  []model.HistoryEntry `json:"history"`
}

type InventoryService interface {
	AddProduct(ctx context.Context, barcode, name, description string, minStock int) (*model.Product, error)
	ApplyTransaction(ctx context.Context, barcode string, quantity int, txType model.TransactionType, note string) (*TransactionResult, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	GetHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error)
	Snapshot(ctx context.Context) (*StockSnapshot, error)
	InitialData(ctx context.Context) ([]byte, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	historyRepo repository.HistoryRepository
	hub         Broadcaster
}

func NewInventoryService(pRepo repository.ProductRepository, hRepo repository.HistoryRepository, hub Broadcaster) InventoryService {
	return &inventoryService{
		productRepo: pRepo,
		historyRepo: hRepo,
		hub:         hub,
	}
}

func (s *inventoryService) AddProduct(ctx context.Context, barcode, name, description string, minStock int) (*model.Product, error) {
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if minStock < 0 {
		return nil, fmt.Errorf("%w: min_stock cannot be negative", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	// Cek duplikasi barcode dulu; unique index tetap jadi guard terakhir
	// kalau dua create berlomba.
	existing, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err == nil && existing != nil {
		return nil, ErrDuplicateBarcode
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr(err)
	}

	product := &model.Product{
		Barcode:      barcode,
		Name:         name,
		Description:  description,
		CurrentStock: 0,
		MinStock:     minStock,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, storeErr(err)
	}

	go s.broadcastProductsUpdated()

	return product, nil
}

func (s *inventoryService) ApplyTransaction(ctx context.Context, barcode string, quantity int, txType model.TransactionType, note string) (*TransactionResult, error) {
	// Boundary HTTP sudah validasi, tapi engine tetap menolak sendiri:
	// quantity adalah magnitude dan harus positif.
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if !txType.Valid() {
		return nil, ErrInvalidTransactionType
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	var result *TransactionResult
	_, err := s.productRepo.ChangeStock(ctx, barcode, func(product *model.Product) (*model.HistoryEntry, error) {
		before := product.CurrentStock
		after := before

		switch txType {
		case model.TxIn:
			after = before + quantity
		case model.TxOut:
			after = before - quantity
			if after < 0 {
				return nil, ErrInsufficientStock
			}
		}

		product.CurrentStock = after
		result = &TransactionResult{
			ProductID:   product.ID,
			Barcode:     product.Barcode,
			Name:        product.Name,
			BeforeStock: before,
			AfterStock:  after,
		}

		return &model.HistoryEntry{
			ProductID:   product.ID,
			Barcode:     product.Barcode,
			Type:        txType,
			Quantity:    quantity,
			BeforeStock: before,
			AfterStock:  after,
			Note:        note,
		}, nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	go s.broadcastStockUpdated(result)

	return result, nil
}

func (s *inventoryService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return products, nil
}

func (s *inventoryService) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, storeErr(err)
	}
	return product, nil
}

func (s *inventoryService) GetHistory(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	entries, err := s.historyRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return entries, nil
}

// Snapshot membangun payload gabungan: semua product + 50 history terakhir.
// Dipakai untuk initial_data observer baru dan untuk broadcast.
func (s *inventoryService) Snapshot(ctx context.Context) (*StockSnapshot, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	history, err := s.historyRepo.FindRecent(ctx, DefaultHistoryLimit)
	if err != nil {
		return nil, storeErr(err)
	}
	return &StockSnapshot{Products: products, History: history}, nil
}

// InitialData membungkus Snapshot sebagai pesan initial_data siap kirim.
// Observer baru menerima ini dulu sebelum masuk broadcast set, jadi tidak
// pernah mulai dari state kosong.
func (s *inventoryService) InitialData(ctx context.Context) ([]byte, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wsEvent{Type: "initial_data", Data: snap})
}

// wsEvent adalah envelope semua pesan yang dikirim ke observer.
type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broadcast best-effort setelah commit. Jalan di goroutine sendiri supaya
// path mutasi tidak pernah nunggu observer.
func (s *inventoryService) broadcastProductsUpdated() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		log.Printf("broadcast skipped: %v", err)
		return
	}
	s.publish(wsEvent{Type: "products_updated", Data: products})
}

func (s *inventoryService) broadcastStockUpdated(result *TransactionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("broadcast skipped: %v", err)
		return
	}
	s.publish(wsEvent{Type: "stock_updated", Data: map[string]interface{}{
		"products":    snap.Products,
		"history":     snap.History,
		"transaction": result,
	}})
}

func (s *inventoryService) publish(event wsEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal failed: %v", err)
		return
	}
	s.hub.Publish(msg)
}

// storeErr menerjemahkan error store ke taxonomy service.
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInvalidTransactionType),
		errors.Is(err, ErrInvalidInput):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrProductNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateBarcode
	case errors.Is(err, context.DeadlineExceeded):
		return ErrStorageUnavailable
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
