package main

import (
	"context"
	"log"

	"go-barcode-stock/internal/model"
	"go-barcode-stock/internal/repository"
	"go-barcode-stock/internal/service"
	"go-barcode-stock/internal/ws"
	"go-barcode-stock/pkg/database"

	"github.com/joho/godotenv"
)

type seedProduct struct {
	Barcode     string
	Name        string
	Description string
	MinStock    int
}

type seedStock struct {
	Barcode  string
	Quantity int
	Note     string
}

var sampleProducts = []seedProduct{
	{"8801234567890", "Laptop", "14 inch ultrabook", 5},
	{"8801234567891", "Mouse", "Wireless mouse", 10},
	{"8801234567892", "Keyboard", "Mechanical keyboard", 8},
	{"8801234567893", "Monitor", "27 inch 4K monitor", 3},
	{"8801234567894", "USB Cable", "USB-C to USB-C 1m", 20},
	{"8801234567895", "Mouse Pad", "Gaming mouse pad", 15},
	{"8801234567896", "Webcam", "Full HD webcam", 5},
	{"8801234567897", "Headset", "Noise cancelling headset", 7},
	{"8801234567898", "USB Hub", "7 port USB hub", 10},
	{"8801234567899", "Laptop Stand", "Aluminium laptop stand", 8},
}

var sampleStocks = []seedStock{
	{"8801234567890", 10, "opening stock"},
	{"8801234567891", 25, "opening stock"},
	{"8801234567892", 15, "opening stock"},
	{"8801234567893", 5, "opening stock"},
	{"8801234567894", 50, "opening stock"},
}

// Seed tool satu kali jalan: isi catalog demo + stok awal.
// Error per item dilaporkan tapi batch tetap lanjut.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	db := database.ConnectDB()
	if err := db.AutoMigrate(&model.Product{}, &model.HistoryEntry{}); err != nil {
		log.Fatal("Migration failed: ", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	productRepo := repository.NewProductRepo(db)
	historyRepo := repository.NewHistoryRepo(db)
	svc := service.NewInventoryService(productRepo, historyRepo, hub)

	ctx := context.Background()

	created, failed := 0, 0
	for _, p := range sampleProducts {
		if _, err := svc.AddProduct(ctx, p.Barcode, p.Name, p.Description, p.MinStock); err != nil {
			log.Printf("✗ %s (%s): %v", p.Name, p.Barcode, err)
			failed++
			continue
		}
		log.Printf("✓ %s added (barcode: %s)", p.Name, p.Barcode)
		created++
	}
	log.Printf("Products done. created: %d, failed: %d", created, failed)

	for _, st := range sampleStocks {
		result, err := svc.ApplyTransaction(ctx, st.Barcode, st.Quantity, model.TxIn, st.Note)
		if err != nil {
			log.Printf("✗ stock in %s: %v", st.Barcode, err)
			continue
		}
		log.Printf("✓ %s: %d units in (stock now %d)", result.Name, st.Quantity, result.AfterStock)
	}

	log.Println("Seed complete. Run cmd/api to start the server.")
}
