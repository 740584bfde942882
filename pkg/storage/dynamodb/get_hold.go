package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage"
)

// GetHold retrieves a hold from DynamoDB by its ID.
func (s *Store) GetHold(ctx context.Context, holdID string) (*models.Hold, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": holdID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hold ID: %w", err)
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.HoldsTableName),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get hold from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrHoldNotFound
	}

	var hold models.Hold
	if err := attributevalue.UnmarshalMap(result.Item, &hold); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold: %w", err)
	}

	return &hold, nil
}
