package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/alexm/numbers-board/pkg/storage"
	dydbstore "github.com/alexm/numbers-board/pkg/storage/dynamodb"
)

var store storage.Storage

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	numbersTable := os.Getenv("DYNAMODB_NUMBERS_TABLE_NAME")
	holdsTable := os.Getenv("DYNAMODB_HOLDS_TABLE_NAME")
	purchasesTable := os.Getenv("DYNAMODB_PURCHASES_TABLE_NAME")

	if numbersTable == "" || holdsTable == "" || purchasesTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store = dydbstore.New(dbClient, numbersTable, holdsTable, purchasesTable, os.Getenv("DYNAMODB_CONNECTIONS_TABLE_NAME"))
}

// HandleRequest is triggered by an EventBridge Schedule. It is the backstop
// behind the per-hold delayed release messages: anything the queue missed
// gets released here.
func HandleRequest(ctx context.Context) error {
	log.Println("Sweeping for expired holds...")

	released, err := store.ReleaseExpiredHolds(ctx, time.Now())
	if err != nil {
		log.Printf("ERROR: failed to release expired holds: %v", err)
		return err
	}

	if released == 0 {
		log.Println("No expired holds found.")
		return nil
	}

	log.Printf("Released %d expired number(s).", released)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
