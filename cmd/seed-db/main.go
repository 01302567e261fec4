// Command seed-db loads the demo catalog, coupons, owner settings, a demo
// customer, and an API key into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/greengrocer/internal/api"
	"github.com/xenking/greengrocer/internal/domain/auth"
	"github.com/xenking/greengrocer/internal/domain/coupon"
	"github.com/xenking/greengrocer/internal/domain/product"
	"github.com/xenking/greengrocer/internal/domain/settings"
	"github.com/xenking/greengrocer/internal/domain/user"
	"github.com/xenking/greengrocer/internal/repository"
)

type productJSON struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	BasePrice         decimal.Decimal `json:"base_price"`
	StockKg           decimal.Decimal `json:"stock_kg"`
	ScarcityThreshold decimal.Decimal `json:"scarcity_threshold"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or GROCER_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GROCER_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROCER_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or GROCER_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("GROCER_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedSettings(ctx, repository.NewSettingsRepository(pool)); err != nil {
		return errors.Wrap(err, "seed settings")
	}

	customerID, err := seedCustomer(ctx, repository.NewUserRepository(pool))
	if err != nil {
		return errors.Wrap(err, "seed customer")
	}

	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), customerID, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	for _, in := range products {
		p := product.Product{
			Name:              in.Name,
			Category:          in.Category,
			BasePrice:         in.BasePrice,
			StockQty:          in.StockKg,
			ScarcityThreshold: in.ScarcityThreshold,
			Active:            true,
		}
		if err := repo.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "insert product %s", in.Name)
		}

		slog.Info("inserted product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding demo coupons")

	coupons := []coupon.Coupon{
		{
			Code:            "SAVE10",
			DiscountPercent: decimal.NewFromInt(10),
			MinTotal:        decimal.NewFromInt(100),
			Active:          true,
		},
		{
			Code:            "FRESH5",
			DiscountPercent: decimal.NewFromInt(5),
			MinTotal:        decimal.NewFromInt(25),
			Active:          true,
		},
	}

	for _, c := range coupons {
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}

		slog.Info("upserted coupon",
			slog.String("code", c.Code),
			slog.String("percent", c.DiscountPercent.String()),
		)
	}

	return nil
}

func seedSettings(ctx context.Context, repo *repository.SettingsRepository) error {
	slog.Info("seeding owner settings")

	return repo.Put(ctx, settings.OwnerSettings{
		MinCartValue:           decimal.NewFromInt(10),
		LoyaltyMinCompleted:    5,
		LoyaltyDiscountPercent: decimal.NewFromInt(5),
	})
}

func seedCustomer(ctx context.Context, repo *repository.UserRepository) (int64, error) {
	slog.Info("seeding demo customer")

	u := user.User{
		FullName: "Demo Customer",
		Address:  "1 Orchard Lane",
		Phone:    "555-0100",
	}
	if err := repo.Create(ctx, &u); err != nil {
		return 0, err
	}

	slog.Info("inserted customer", slog.Int64("id", u.ID))
	return u.ID, nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, customerID int64, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	if err := repo.Create(ctx, auth.KeyInfo{
		ID:         "default",
		KeyHash:    api.HashAPIKey([]byte(pepper), apiKey),
		CustomerID: customerID,
		Name:       "Default test key",
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
