package main

import (
	"database/sql"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/khanzele16/berri-market-backend/internal/auth"
	"github.com/khanzele16/berri-market-backend/internal/cart"
	"github.com/khanzele16/berri-market-backend/internal/category"
	"github.com/khanzele16/berri-market-backend/internal/checkout"
	"github.com/khanzele16/berri-market-backend/internal/config"
	"github.com/khanzele16/berri-market-backend/internal/metrics"
	"github.com/khanzele16/berri-market-backend/internal/notification"
	"github.com/khanzele16/berri-market-backend/internal/order"
	"github.com/khanzele16/berri-market-backend/internal/product"
	"github.com/khanzele16/berri-market-backend/internal/settlement"
	"github.com/khanzele16/berri-market-backend/internal/shop"
	"github.com/khanzele16/berri-market-backend/internal/user"
	"github.com/khanzele16/berri-market-backend/internal/webhook"
	"github.com/khanzele16/berri-market-backend/internal/yookassa"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	mustBootstrapSchema(db)

	var dedupe webhook.Deduper
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		dedupe = webhook.NewRedisDeduper(rdb)
	}

	kassa := yookassa.NewClient(cfg.YooKassaShopID, cfg.YooKassaSecretKey)

	var publisher settlement.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := notification.NewKafkaPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	shopService := shop.NewService(shop.NewPostgresRepository(db))
	shopHandler := shop.NewHandler(shopService, userService)

	productService := product.NewService(product.NewPostgresRepository(db))
	productHandler := product.NewHandler(productService, userService)

	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db)))

	cartService := cart.NewService(cart.NewPostgresRepository(db))
	cartHandler := cart.NewHandler(cartService)

	orderRepo := order.NewPostgresRepository(db)
	orderHandler := order.NewHandler(order.NewService(orderRepo))

	checkoutService := checkout.NewService(cartService, orderRepo, kassa, checkout.Config{
		MinAmount:         cfg.MinOrderAmount,
		CommissionPercent: cfg.CommissionPercent,
		ReturnURL:         cfg.PaymentReturnURL,
	})
	checkoutHandler := checkout.NewHandler(checkoutService, userService)

	settlementMetrics := metrics.NewSettlementMetrics()
	engine := settlement.NewEngine(orderRepo, userService, shopService, kassa, publisher, settlementMetrics, settlement.Config{
		SellerShare:   cfg.SellerShare,
		PayoutTimeout: cfg.PayoutTimeout,
	})
	settlementHandler := settlement.NewHandler(engine)

	webhookHandler := webhook.NewHandler(orderRepo, kassa, dedupe)

	// public routes; everything registered after the jwt middleware
	// requires a bearer token
	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	webhookHandler.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	userHandler.RegisterProtectedRoutes(app)
	shopHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	requireAdmin := auth.RequireAdmin(auth.NewRolePolicy(), userService)
	settlementHandler.RegisterAdminRoutes(app, requireAdmin)
	orderHandler.RegisterAdminRoutes(app, requireAdmin)
	shopHandler.RegisterAdminRoutes(app, requireAdmin)
	productHandler.RegisterAdminRoutes(app, requireAdmin)
	categoryHandler.RegisterAdminRoutes(app, requireAdmin)

	app.Listen(cfg.Addr)
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}

func mustBootstrapSchema(db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			"userId" SERIAL PRIMARY KEY,
			"telegramId" BIGINT UNIQUE,
			email TEXT UNIQUE,
			password TEXT,
			"firstName" TEXT,
			username TEXT,
			role TEXT,
			"shopId" INT,
			cart jsonb NOT NULL DEFAULT '{}',
			"createdAt" TEXT,
			"updatedAt" TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS shops (
			"shopId" SERIAL PRIMARY KEY,
			"ownerId" INT NOT NULL UNIQUE,
			name TEXT,
			description TEXT,
			"cardNumber" TEXT,
			"productsCount" INT NOT NULL DEFAULT 0,
			"salesCount" INT NOT NULL DEFAULT 0,
			"totalRevenue" numeric NOT NULL DEFAULT 0,
			"isApproved" BOOLEAN NOT NULL DEFAULT FALSE,
			"isActive" BOOLEAN NOT NULL DEFAULT TRUE,
			"pendingName" TEXT,
			"pendingDescription" TEXT,
			"createdAt" TEXT,
			"updatedAt" TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			"productID" SERIAL PRIMARY KEY,
			"shopID" INT NOT NULL,
			"sellerID" INT NOT NULL,
			"categoryID" INT,
			name TEXT,
			description TEXT,
			price numeric NOT NULL DEFAULT 0,
			sizes jsonb NOT NULL DEFAULT '[]',
			"isApproved" BOOLEAN NOT NULL DEFAULT FALSE,
			"isActive" BOOLEAN NOT NULL DEFAULT TRUE,
			"createdAt" TEXT,
			"updatedAt" TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS category (
			"categoryID" SERIAL PRIMARY KEY,
			"categoryName" TEXT UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			"orderID" SERIAL PRIMARY KEY,
			"orderNumber" TEXT UNIQUE,
			"buyerID" INT NOT NULL,
			items jsonb NOT NULL DEFAULT '[]',
			"totalAmount" numeric NOT NULL DEFAULT 0,
			"commissionAmount" numeric NOT NULL DEFAULT 0,
			"sellerAmount" numeric NOT NULL DEFAULT 0,
			"commissionPercent" INT NOT NULL DEFAULT 0,
			"paymentID" TEXT,
			"paymentURL" TEXT,
			"paymentStatus" TEXT,
			status TEXT,
			"adminApproved" BOOLEAN NOT NULL DEFAULT FALSE,
			"approvedAt" TIMESTAMPTZ,
			"approvedBy" INT,
			"rejectedAt" TIMESTAMPTZ,
			"rejectionReason" TEXT,
			"payoutID" TEXT,
			"payoutStatus" TEXT,
			"paidAt" TIMESTAMPTZ,
			"completedAt" TIMESTAMPTZ,
			"createdAt" TIMESTAMPTZ,
			"updatedAt" TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS orders_payment_id_idx ON orders ("paymentID")`,
		`CREATE INDEX IF NOT EXISTS orders_buyer_id_idx ON orders ("buyerID")`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			panic(err)
		}
	}
}
