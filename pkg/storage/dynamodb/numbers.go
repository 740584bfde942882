package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage"
)

// ListBoardNumbers retrieves every number on a board, ordered by number.
func (s *Store) ListBoardNumbers(ctx context.Context, boardID string) ([]models.BoardNumber, error) {
	var numbers []models.BoardNumber
	var lastKey map[string]types.AttributeValue

	for {
		result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.NumbersTableName),
			KeyConditionExpression: aws.String("board_id = :board_id"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":board_id": &types.AttributeValueMemberS{Value: boardID},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query board numbers: %w", err)
		}

		var page []models.BoardNumber
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal board numbers: %w", err)
		}
		numbers = append(numbers, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return numbers, nil
}

// GetBoardNumbers retrieves specific numbers on a board via BatchGetItem.
func (s *Store) GetBoardNumbers(ctx context.Context, boardID string, numbers []int) ([]models.BoardNumber, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(numbers))
	for _, n := range numbers {
		keys = append(keys, map[string]types.AttributeValue{
			"board_id": &types.AttributeValueMemberS{Value: boardID},
			"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)},
		})
	}

	var found []models.BoardNumber
	request := map[string]types.KeysAndAttributes{
		s.NumbersTableName: {Keys: keys},
	}

	for len(request) > 0 {
		result, err := s.Client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, fmt.Errorf("failed to batch get numbers: %w", err)
		}

		var page []models.BoardNumber
		if err := attributevalue.UnmarshalListOfMaps(result.Responses[s.NumbersTableName], &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal numbers: %w", err)
		}
		found = append(found, page...)

		if len(result.UnprocessedKeys) == 0 {
			break
		}
		request = result.UnprocessedKeys
	}

	return found, nil
}

// SeedBoard provisions numbers 1..count for a board, all available. Writes
// go out in batches of 25, the BatchWriteItem limit. Refuses to touch a
// board that already has any numbers.
func (s *Store) SeedBoard(ctx context.Context, boardID string, count int) error {
	existing, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.NumbersTableName),
		KeyConditionExpression: aws.String("board_id = :board_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":board_id": &types.AttributeValueMemberS{Value: boardID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("failed to check for existing numbers: %w", err)
	}
	if len(existing.Items) > 0 {
		return storage.ErrBoardAlreadySeeded
	}

	const batchSize = 25
	for start := 1; start <= count; start += batchSize {
		end := start + batchSize - 1
		if end > count {
			end = count
		}

		writes := make([]types.WriteRequest, 0, batchSize)
		for n := start; n <= end; n++ {
			item, err := attributevalue.MarshalMap(models.BoardNumber{
				BoardId: boardID,
				Number:  n,
				Status:  models.AVAILABLE,
			})
			if err != nil {
				return fmt.Errorf("failed to marshal number %d: %w", n, err)
			}
			writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		request := map[string][]types.WriteRequest{s.NumbersTableName: writes}
		for len(request) > 0 {
			result, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: request})
			if err != nil {
				return fmt.Errorf("failed to write numbers %d-%d: %w", start, end, err)
			}
			if len(result.UnprocessedItems) == 0 {
				break
			}
			request = result.UnprocessedItems
		}
	}

	return nil
}
