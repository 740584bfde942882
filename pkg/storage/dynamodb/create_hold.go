package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage"
)

// CreateHold inserts the hold row and atomically claims the requested numbers.
// The claim is a single TransactWriteItems where every number carries a
// "still available" condition; if any condition fails the whole claim is
// rejected, so a buyer can never end up with a partial hold.
func (s *Store) CreateHold(ctx context.Context, hold *models.Hold, numbers []int) (*models.Hold, error) {
	// 1. Pre-check availability for a friendly early Conflict. The
	// authoritative guard is the conditional claim below.
	existing, err := s.GetBoardNumbers(ctx, hold.BoardId, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to read requested numbers: %w", err)
	}
	if len(existing) != len(numbers) {
		return nil, fmt.Errorf("%w: unknown numbers on board %s", storage.ErrNumbersUnavailable, hold.BoardId)
	}
	for _, n := range existing {
		if n.Status != models.AVAILABLE {
			return nil, storage.ErrNumbersUnavailable
		}
	}

	// 2. Complete the hold object with server-side details.
	now := time.Now()
	hold.Id = uuid.New().String()
	hold.CreatedAt = now
	if hold.ExpiresAt.IsZero() {
		hold.ExpiresAt = now.Add(models.HoldTTL)
	}

	slog.Log(ctx, slog.LevelDebug, "creating hold", "hold", hold, "numbers", numbers)

	holdAV, err := attributevalue.MarshalMap(hold)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hold: %w", err)
	}

	// 3. Insert the hold row first so claimed numbers always reference an
	// existing hold.
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.HoldsTableName),
		Item:                holdAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert hold: %w", err)
	}

	// 4. Claim every requested number, each conditional on still being
	// available. TransactWriteItems is all-or-nothing, so losing the race on
	// one number aborts the whole claim.
	expiresAV, err := attributevalue.Marshal(hold.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expiry: %w", err)
	}

	items := make([]types.TransactWriteItem, 0, len(numbers))
	for _, number := range numbers {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.NumbersTableName),
				Key: map[string]types.AttributeValue{
					"board_id": &types.AttributeValueMemberS{Value: hold.BoardId},
					"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", number)},
				},
				UpdateExpression:    aws.String("SET #status = :held, hold_id = :hold_id, hold_expires_at = :expires"),
				ConditionExpression: aws.String("#status = :available"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":held":      &types.AttributeValueMemberS{Value: string(models.HELD)},
					":available": &types.AttributeValueMemberS{Value: string(models.AVAILABLE)},
					":hold_id":   &types.AttributeValueMemberS{Value: hold.Id},
					":expires":   expiresAV,
				},
			},
		})
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		// The hold row must not outlive a failed claim.
		s.deleteHoldRow(ctx, hold.Id)

		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return nil, storage.ErrNumbersUnavailable
				}
			}
		}
		return nil, fmt.Errorf("failed to claim numbers: %w", err)
	}

	return hold, nil
}

// deleteHoldRow removes a hold row best-effort.
func (s *Store) deleteHoldRow(ctx context.Context, holdID string) {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.HoldsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: holdID},
		},
	})
	if err != nil {
		slog.Error("failed to delete hold row", "holdId", holdID, "error", err)
	}
}
