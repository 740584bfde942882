package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/alexm/numbers-board/pkg/storage"
)

// DynamoDBAPI captures the subset of the DynamoDB client used by the Store.
// It exists so tests can substitute a mock for the real client.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
//
// Tables:
//   - numbers: PK board_id, SK number; GSIs status-index and hold_id-index
//   - holds: PK id
//   - purchases: PK id; GSI payment_reference-index
//   - websocket connections: PK connection_id; GSI pk-index
type Store struct {
	Client                        DynamoDBAPI
	NumbersTableName              string
	HoldsTableName                string
	PurchasesTableName            string
	WebsocketConnectionsTableName string
}

// New creates a new Store.
func New(client DynamoDBAPI, numbersTable, holdsTable, purchasesTable, connectionsTable string) *Store {
	return &Store{
		Client:                        client,
		NumbersTableName:              numbersTable,
		HoldsTableName:                holdsTable,
		PurchasesTableName:            purchasesTable,
		WebsocketConnectionsTableName: connectionsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

const (
	// statusIndex projects numbers by status with hold_expires_at available
	// for filtering; used by the expiry sweep.
	statusIndex = "status-index"

	// holdIndex projects numbers by the hold that claims them.
	holdIndex = "hold_id-index"

	// paymentReferenceIndex projects purchases by the processor's payment
	// identifier; used by the webhook idempotency check.
	paymentReferenceIndex = "payment_reference-index"
)
