package dynamodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alexm/numbers-board/pkg/models"
)

// ReleaseExpiredHolds releases every held number whose hold expiry has
// passed. Each release is conditional on the number still being held and
// still expired, so running concurrently with a webhook finalization is
// safe: whichever conditional update lands first wins and the other becomes
// a no-op. Running twice with no new expirations releases nothing.
func (s *Store) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	nowText, err := now.MarshalText()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal cutoff time: %w", err)
	}

	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.NumbersTableName),
		IndexName:              aws.String(statusIndex),
		KeyConditionExpression: aws.String("#status = :held"),
		FilterExpression:       aws.String("hold_expires_at < :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":held": &types.AttributeValueMemberS{Value: string(models.HELD)},
			":now":  &types.AttributeValueMemberS{Value: string(nowText)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query for expired holds: %w", err)
	}

	var expired []models.BoardNumber
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &expired); err != nil {
		return 0, fmt.Errorf("failed to unmarshal expired numbers: %w", err)
	}

	released := 0
	staleHolds := make(map[string]struct{})
	for _, n := range expired {
		if n.HoldId == nil {
			// Held without a hold reference should not happen; skip rather
			// than guess.
			slog.Error("held number has no hold_id", "boardId", n.BoardId, "number", n.Number)
			continue
		}
		ok, err := s.releaseNumber(ctx, n.BoardId, n.Number, *n.HoldId)
		if err != nil {
			return released, fmt.Errorf("failed to release expired number %d: %w", n.Number, err)
		}
		if ok {
			released++
			staleHolds[*n.HoldId] = struct{}{}
		}
	}

	// Prune the orphaned hold rows opportunistically. Holds carry no
	// inventory state, so a failure here is harmless.
	for holdID := range staleHolds {
		s.deleteHoldRow(ctx, holdID)
	}

	return released, nil
}
