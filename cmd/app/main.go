package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/alexm/numbers-board/pkg/handlers/board"
	"github.com/alexm/numbers-board/pkg/handlers/checkout"
	"github.com/alexm/numbers-board/pkg/handlers/holds"
	"github.com/alexm/numbers-board/pkg/handlers/promo"
	"github.com/alexm/numbers-board/pkg/handlers/webhooks"
	wshandlers "github.com/alexm/numbers-board/pkg/handlers/websockets"
	"github.com/alexm/numbers-board/pkg/middleware"
	"github.com/alexm/numbers-board/pkg/payments/squarelinks"
	"github.com/alexm/numbers-board/pkg/payments/stripecheckout"
	"github.com/alexm/numbers-board/pkg/scheduler"
	dydbstore "github.com/alexm/numbers-board/pkg/storage/dynamodb"
	"github.com/alexm/numbers-board/pkg/websockets"
)

func mustGetenv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s environment variable not set", key)
	}
	return value
}

func main() {
	// Load environment variables from .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	numbersTable := mustGetenv("DYNAMODB_NUMBERS_TABLE_NAME")
	holdsTable := mustGetenv("DYNAMODB_HOLDS_TABLE_NAME")
	purchasesTable := mustGetenv("DYNAMODB_PURCHASES_TABLE_NAME")
	connectionsTable := os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME")

	store := dydbstore.New(dbClient, numbersTable, holdsTable, purchasesTable, connectionsTable)

	// SQS Client and Scheduler
	sqsClient := sqs.NewFromConfig(cfg)
	sqsScheduler := scheduler.NewSQSScheduler(sqsClient, mustGetenv("SQS_RELEASE_QUEUE_URL"))

	siteURL := mustGetenv("SITE_URL")

	// Payment processors
	stripeAdapter := stripecheckout.New(
		mustGetenv("STRIPE_SECRET_KEY"),
		mustGetenv("STRIPE_WEBHOOK_SECRET"),
		siteURL,
	)

	squareBaseURL := squarelinks.ProductionBaseURL
	if os.Getenv("SQUARE_ENVIRONMENT") == "sandbox" {
		squareBaseURL = squarelinks.SandboxBaseURL
	}
	squareAdapter := squarelinks.New(
		mustGetenv("SQUARE_ACCESS_TOKEN"),
		mustGetenv("SQUARE_LOCATION_ID"),
		mustGetenv("SQUARE_SIGNATURE_KEY"),
		mustGetenv("SQUARE_NOTIFICATION_URL"),
		siteURL,
		squareBaseURL,
	)

	// Live board updates. Local deployments without an API Gateway
	// WebSocket endpoint fall back to a no-op publisher.
	var publisher websockets.Publisher = &websockets.NoOpPublisher{}
	if endpoint := os.Getenv("WEBSOCKET_API_ENDPOINT"); endpoint != "" {
		publisher, err = websockets.NewPublisher(store, store, endpoint)
		if err != nil {
			log.Fatalf("failed to create websocket publisher: %v", err)
		}
	}

	promoCode := os.Getenv("PROMO_CODE")
	promoLimit := 10
	if raw := os.Getenv("PROMO_CODE_LIMIT"); raw != "" {
		promoLimit, err = strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("invalid PROMO_CODE_LIMIT: %v", err)
		}
	}

	// Handlers
	boardHandler := board.NewBoardHandler(store)
	holdsHandler := holds.NewHoldsHandler(store, sqsScheduler, publisher)
	checkoutHandler := checkout.NewCheckoutHandler(store, stripeAdapter, squareAdapter)
	webhooksHandler := webhooks.NewWebhooksHandler(store, stripeAdapter, squareAdapter, publisher)
	wsHandler := wshandlers.NewHandler(store)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chimiddleware.Recoverer)

	router.Get("/boards/{boardId}/numbers", boardHandler.ListNumbers)
	router.Get("/quote", boardHandler.GetQuote)
	router.Post("/holds", holdsHandler.CreateHold)
	router.Post("/checkout", checkoutHandler.CreateCheckout)
	router.Post("/webhooks/stripe", webhooksHandler.HandleStripe)
	router.Post("/webhooks/square", webhooksHandler.HandleSquare)
	router.Get("/ws", wsHandler.ServeHTTP)

	if promoCode != "" {
		promoHandler := promo.NewPromoHandler(store, publisher, promoCode, promoLimit)
		router.Post("/promo-purchases", promoHandler.CreatePromoPurchase)
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	err = http.ListenAndServe(":"+port, router)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
