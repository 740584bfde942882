package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alexm/numbers-board/pkg/models"
)

// ReleaseHold returns a hold's numbers to available and deletes the hold row.
// Each number is released with a conditional update so a concurrent
// finalization that already flipped a number to sold wins; the release of
// that number becomes a no-op.
func (s *Store) ReleaseHold(ctx context.Context, holdID string) (int, error) {
	numbers, err := s.getNumbersByHold(ctx, holdID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up numbers for hold %s: %w", holdID, err)
	}

	released := 0
	for _, n := range numbers {
		ok, err := s.releaseNumber(ctx, n.BoardId, n.Number, holdID)
		if err != nil {
			return released, fmt.Errorf("failed to release number %d: %w", n.Number, err)
		}
		if ok {
			released++
		}
	}

	s.deleteHoldRow(ctx, holdID)

	return released, nil
}

// releaseNumber conditionally flips one number back to available. Returns
// false without error when the condition no longer holds (already released
// or already sold).
func (s *Store) releaseNumber(ctx context.Context, boardID string, number int, holdID string) (bool, error) {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.NumbersTableName),
		Key: map[string]types.AttributeValue{
			"board_id": &types.AttributeValueMemberS{Value: boardID},
			"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", number)},
		},
		UpdateExpression:    aws.String("SET #status = :available REMOVE hold_id, hold_expires_at"),
		ConditionExpression: aws.String("#status = :held AND hold_id = :hold_id"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":available": &types.AttributeValueMemberS{Value: string(models.AVAILABLE)},
			":held":      &types.AttributeValueMemberS{Value: string(models.HELD)},
			":hold_id":   &types.AttributeValueMemberS{Value: holdID},
		},
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// getNumbersByHold queries the hold_id index for the numbers a hold claims.
func (s *Store) getNumbersByHold(ctx context.Context, holdID string) ([]models.BoardNumber, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.NumbersTableName),
		IndexName:              aws.String(holdIndex),
		KeyConditionExpression: aws.String("hold_id = :hold_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":hold_id": &types.AttributeValueMemberS{Value: holdID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query hold_id index: %w", err)
	}

	var numbers []models.BoardNumber
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &numbers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal numbers: %w", err)
	}

	return numbers, nil
}
