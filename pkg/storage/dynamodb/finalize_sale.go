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

// FinalizeSale converts a hold into a permanent sale after a verified
// payment. The flip to sold and the purchase insert are independent writes:
// if the purchase insert fails, the flipped numbers are reverted to held and
// re-linked to the hold so the sweep or a webhook redelivery can settle
// their fate. The revert is itself conditional, so applying it twice is safe.
func (s *Store) FinalizeSale(ctx context.Context, hold *models.Hold, paymentRef string, amountCents int64) (*models.Purchase, error) {
	numbers, err := s.getNumbersByHold(ctx, hold.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up numbers for hold %s: %w", hold.Id, err)
	}
	if len(numbers) == 0 {
		return nil, storage.ErrHoldNotFound
	}

	// 1. Flip every claimed number to sold, stamping the buyer details and
	// clearing the hold and promo fields. Conditional on still being held by
	// this hold, which fences out the expiry sweep.
	if err := s.markNumbersSold(ctx, hold, numbers); err != nil {
		return nil, err
	}

	// 2. Record the purchase.
	purchase := &models.Purchase{
		Id:               uuid.New().String(),
		BoardId:          hold.BoardId,
		Email:            hold.Email,
		Phone:            hold.Phone,
		DisplayName:      hold.DisplayName,
		Message:          hold.Message,
		AmountCents:      amountCents,
		PaymentReference: &paymentRef,
		CreatedAt:        time.Now(),
	}

	purchaseAV, err := attributevalue.MarshalMap(purchase)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.PurchasesTableName),
		Item:                purchaseAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		// Compensate: the sale is not durably recorded, so the numbers must
		// not stay sold. Attempted even though mid-rollback failures can
		// still leave work for the next redelivery.
		if rbErr := s.revertNumbersToHeld(ctx, hold, numbers); rbErr != nil {
			slog.Error("rollback after purchase insert failure was incomplete",
				"holdId", hold.Id, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	// 3. The sale is durable; the hold row is spent. Deleting it is
	// best-effort because the purchase already exists.
	s.deleteHoldRow(ctx, hold.Id)

	return purchase, nil
}

// markNumbersSold flips the hold's numbers to sold in one all-or-nothing
// transact write.
func (s *Store) markNumbersSold(ctx context.Context, hold *models.Hold, numbers []models.BoardNumber) error {
	values := map[string]types.AttributeValue{
		":sold":         &types.AttributeValueMemberS{Value: string(models.SOLD)},
		":held":         &types.AttributeValueMemberS{Value: string(models.HELD)},
		":hold_id":      &types.AttributeValueMemberS{Value: hold.Id},
		":display_name": &types.AttributeValueMemberS{Value: hold.DisplayName},
	}
	update := "SET #status = :sold, display_name = :display_name REMOVE hold_id, hold_expires_at, promo_code"
	if hold.Message != nil {
		update = "SET #status = :sold, display_name = :display_name, message = :message REMOVE hold_id, hold_expires_at, promo_code"
		values[":message"] = &types.AttributeValueMemberS{Value: *hold.Message}
	}

	items := make([]types.TransactWriteItem, 0, len(numbers))
	for _, n := range numbers {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.NumbersTableName),
				Key: map[string]types.AttributeValue{
					"board_id": &types.AttributeValueMemberS{Value: n.BoardId},
					"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n.Number)},
				},
				UpdateExpression:    aws.String(update),
				ConditionExpression: aws.String("#status = :held AND hold_id = :hold_id"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: values,
			},
		})
	}

	_, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					// The sweep or another delivery got there first.
					return storage.ErrHoldNotFound
				}
			}
		}
		return fmt.Errorf("failed to mark numbers sold: %w", err)
	}

	return nil
}

// revertNumbersToHeld is the compensating inverse of markNumbersSold.
// Each revert is individually conditional on the number being sold, so
// re-applying it after a partial failure only touches what still needs
// reverting.
func (s *Store) revertNumbersToHeld(ctx context.Context, hold *models.Hold, numbers []models.BoardNumber) error {
	expiresAV, err := attributevalue.Marshal(hold.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to marshal expiry for rollback: %w", err)
	}

	var firstErr error
	for _, n := range numbers {
		_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName: aws.String(s.NumbersTableName),
			Key: map[string]types.AttributeValue{
				"board_id": &types.AttributeValueMemberS{Value: n.BoardId},
				"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n.Number)},
			},
			UpdateExpression:    aws.String("SET #status = :held, hold_id = :hold_id, hold_expires_at = :expires"),
			ConditionExpression: aws.String("#status = :sold"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":held":    &types.AttributeValueMemberS{Value: string(models.HELD)},
				":sold":    &types.AttributeValueMemberS{Value: string(models.SOLD)},
				":hold_id": &types.AttributeValueMemberS{Value: hold.Id},
				":expires": expiresAV,
			},
		})
		if err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				// Already reverted by an earlier rollback attempt.
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to revert number %d: %w", n.Number, err)
			}
		}
	}

	return firstErr
}
