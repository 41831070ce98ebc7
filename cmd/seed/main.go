package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/repository/unitofwork"
	"tryon-widget-be/pkg/database"
)

// Seeds one demo retailer so the widget and dashboard have something to
// point at locally. The printed API key is shown once; only its hash is
// stored.
func main() {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	apiKey := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Error: Failed to hash API key:", err)
	}

	retailer := &entity.Retailer{
		Id:           uuid.New(),
		Name:         "Demo Boutique",
		AlertEmail:   "alerts@demo-boutique.test",
		APIKeyHash:   string(hash),
		WidgetOrigin: "http://localhost:5173",
		CreatedAt:    time.Now(),
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.RetailerRepository().Create(ctx, retailer); err != nil {
		log.Fatal("Error: Failed to create retailer:", err)
	}

	log.Printf("✅ Seeded retailer %s (%s)", retailer.Name, retailer.Id)
	log.Printf("   API key (store this now, it is not retrievable): %s", apiKey)
}
