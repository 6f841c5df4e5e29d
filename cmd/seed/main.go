package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/database"
	"marketplace/internal/domain"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "marketplace.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM refunds")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM order_items")
	db.Exec("DELETE FROM orders")
	db.Exec("DELETE FROM cart_items")
	db.Exec("DELETE FROM carts")
	db.Exec("DELETE FROM products")
	db.Exec("DELETE FROM uploads")
	db.Exec("DELETE FROM session_tokens")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:         "admin@marketplace.local",
		Username:      "admin",
		PasswordHash:  string(adminHash),
		FirstName:     "Site",
		LastName:      "Admin",
		Roles:         domain.RoleList{domain.RoleAdmin},
		EmailVerified: true,
	}
	db.Create(&admin)
	log.Println("Admin created: admin@marketplace.local / admin123")

	merchants := []domain.User{}
	for i := 1; i <= 2; i++ {
		hash, _ := bcrypt.GenerateFromPassword([]byte("merchant123"), bcrypt.DefaultCost)
		m := domain.User{
			Email:         fmt.Sprintf("merchant%d@marketplace.local", i),
			Username:      fmt.Sprintf("merchant%d", i),
			PasswordHash:  string(hash),
			FirstName:     fmt.Sprintf("Merchant %d", i),
			Roles:         domain.RoleList{domain.RoleCustomer, domain.RoleMerchant},
			EmailVerified: true,
		}
		db.Create(&m)
		merchants = append(merchants, m)
	}

	for i := 1; i <= 3; i++ {
		hash, _ := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
		c := domain.User{
			Email:         fmt.Sprintf("customer%d@marketplace.local", i),
			Username:      fmt.Sprintf("customer%d", i),
			PasswordHash:  string(hash),
			FirstName:     fmt.Sprintf("Customer %d", i),
			Roles:         domain.RoleList{domain.RoleCustomer},
			EmailVerified: true,
		}
		db.Create(&c)
	}

	log.Println("Creating products...")

	products := []domain.Product{
		{MerchantID: merchants[0].ID, Name: "Wireless Headphones", Description: "Over-ear, 30h battery", Category: "electronics", PriceCents: 12999, Currency: "USD", Stock: 25, Published: true},
		{MerchantID: merchants[0].ID, Name: "Mechanical Keyboard", Description: "Hot-swappable switches", Category: "electronics", PriceCents: 8950, Currency: "USD", Stock: 40, Published: true},
		{MerchantID: merchants[0].ID, Name: "USB-C Dock", Description: "Dual HDMI, 100W PD", Category: "electronics", PriceCents: 6499, Currency: "USD", Stock: 0, Published: true},
		{MerchantID: merchants[1].ID, Name: "Ceramic Mug", Description: "350ml, dishwasher safe", Category: "home", PriceCents: 1599, Currency: "USD", Stock: 120, Published: true},
		{MerchantID: merchants[1].ID, Name: "Desk Lamp", Description: "Adjustable warm light", Category: "home", PriceCents: 3499, Currency: "USD", Stock: 15, Published: true},
		{MerchantID: merchants[1].ID, Name: "Prototype Gadget", Description: "Not ready for sale", Category: "electronics", PriceCents: 99999, Currency: "USD", Stock: 1, Published: false},
	}
	for i := range products {
		db.Create(&products[i])
	}

	log.Printf("Seed complete: %d users, %d products", 6, len(products))
}
