package model

import "time"

type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Barcode      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"barcode"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `json:"description"`
	CurrentStock int       `gorm:"not null;default:0" json:"current_stock"`
	MinStock     int       `gorm:"not null;default:0" json:"min_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relasi
	History []HistoryEntry `gorm:"foreignKey:ProductID" json:"history,omitempty"`
}
