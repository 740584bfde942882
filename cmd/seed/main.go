// Command seed provisions a fresh board with its purchasable numbers.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/alexm/numbers-board/pkg/storage"
	dydbstore "github.com/alexm/numbers-board/pkg/storage/dynamodb"
)

func main() {
	boardID := flag.String("board-id", "", "identifier of the board to create")
	count := flag.Int("count", 100, "how many numbers the board carries")
	flag.Parse()

	if *boardID == "" {
		log.Fatal("-board-id is required")
	}
	if *count < 1 || *count > 200 {
		log.Fatal("-count must be between 1 and 200")
	}

	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	numbersTable := os.Getenv("DYNAMODB_NUMBERS_TABLE_NAME")
	if numbersTable == "" {
		log.Fatal("DYNAMODB_NUMBERS_TABLE_NAME environment variable not set")
	}

	store := dydbstore.New(dynamodb.NewFromConfig(cfg), numbersTable, "", "", "")

	if err := store.SeedBoard(context.Background(), *boardID, *count); err != nil {
		if errors.Is(err, storage.ErrBoardAlreadySeeded) {
			log.Fatalf("board %s already has numbers; refusing to reseed", *boardID)
		}
		log.Fatalf("failed to seed board: %v", err)
	}

	log.Printf("Seeded board %s with numbers 1-%d", *boardID, *count)
}
