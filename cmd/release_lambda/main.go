package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/alexm/numbers-board/pkg/scheduler"
	"github.com/alexm/numbers-board/pkg/storage"
	dydbstore "github.com/alexm/numbers-board/pkg/storage/dynamodb"
)

var store storage.Storage

func init() {
	// Load environment variables from .env file (useful for local testing).
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
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

// HandleRequest processes delayed release messages. Each message names one
// hold whose expiry has passed; the conditional release in the store makes
// re-processing and racing the expiry sweep harmless.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var msg scheduler.ReleaseMessage
		if err := json.Unmarshal([]byte(message.Body), &msg); err != nil {
			log.Printf("ERROR: failed to unmarshal release message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message, which is appropriate here.
			return err
		}

		// Releases are conditional in the store, so a hold that was already
		// finalized or swept simply releases zero numbers.
		released, err := store.ReleaseHold(ctx, msg.HoldID)
		if err != nil {
			log.Printf("ERROR: failed to release hold %s: %v", msg.HoldID, err)
			return err
		}

		log.Printf("Released %d number(s) for hold %s", released, msg.HoldID)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
