package model

import "time"

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// HistoryEntry adalah audit trail per mutasi stok. Append-only: tidak pernah
// di-update atau di-delete setelah commit.
type HistoryEntry struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"-"`
	Barcode   string          `gorm:"type:varchar(64);not null" json:"barcode"`
	Type      TransactionType `gorm:"column:transaction_type;type:varchar(10);not null" json:"transaction_type"`
	Quantity  int             `gorm:"not null" json:"quantity"` // magnitude, selalu > 0
	// Snapshot stok sebelum/sesudah transaksi
	BeforeStock int       `gorm:"not null" json:"before_stock"`
	AfterStock  int       `gorm:"not null" json:"after_stock"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`

	// Diisi saat read via join, bukan kolom
	ProductName string `gorm:"->;-:migration" json:"product_name,omitempty"`
}

func (HistoryEntry) TableName() string {
	return "inventory_history"
}
