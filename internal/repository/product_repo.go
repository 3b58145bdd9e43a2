package repository

import (
	"context"
	"time"

	"go-barcode-stock/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	// ChangeStock menjalankan apply dengan row product ter-lock (FOR UPDATE),
	// lalu commit stok baru + history row dalam satu transaksi. Kalau apply
	// mengembalikan error, transaksi rollback dan tidak ada state berubah.
	ChangeStock(ctx context.Context, barcode string, apply func(product *model.Product) (*model.HistoryEntry, error)) (*model.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) ChangeStock(ctx context.Context, barcode string, apply func(product *model.Product) (*model.HistoryEntry, error)) (*model.Product, error) {
	var product model.Product

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock row product (SELECT ... FOR UPDATE) supaya read-check-write
		// ter-serialize antar writer pada barcode yang sama
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "barcode = ?", barcode).Error; err != nil {
			return err
		}

		entry, err := apply(&product)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Product{}).
			Where("id = ?", product.ID).
			Updates(map[string]interface{}{
				"current_stock": product.CurrentStock,
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return err
		}

		return tx.Create(entry).Error
	})

	if err != nil {
		return nil, err
	}
	return &product, nil
}
