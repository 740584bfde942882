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

// GetPurchaseByPaymentReference looks up a purchase by the processor's
// payment identifier. Returns (nil, nil) when none exists.
func (s *Store) GetPurchaseByPaymentReference(ctx context.Context, paymentRef string) (*models.Purchase, error) {
	result, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.PurchasesTableName),
		IndexName:              aws.String(paymentReferenceIndex),
		KeyConditionExpression: aws.String("payment_reference = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: paymentRef},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query payment reference index: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	var purchase models.Purchase
	if err := attributevalue.UnmarshalMap(result.Items[0], &purchase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase: %w", err)
	}

	return &purchase, nil
}

// CountPromoPurchases returns how many purchases on a board used a promo code.
func (s *Store) CountPromoPurchases(ctx context.Context, boardID, promoCode string) (int, error) {
	count := 0
	var lastKey map[string]types.AttributeValue

	for {
		result, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.PurchasesTableName),
			FilterExpression: aws.String("board_id = :board_id AND promo_code = :promo"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":board_id": &types.AttributeValueMemberS{Value: boardID},
				":promo":    &types.AttributeValueMemberS{Value: promoCode},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to count promo purchases: %w", err)
		}
		count += int(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return count, nil
}

// CreatePromoPurchase records a zero-amount promo purchase and flips the
// requested numbers directly to sold. The purchase row goes in first; if the
// number flip loses a race the purchase is rolled back.
func (s *Store) CreatePromoPurchase(ctx context.Context, purchase *models.Purchase, numbers []int) (*models.Purchase, error) {
	purchase.Id = uuid.New().String()
	purchase.AmountCents = 0
	purchase.CreatedAt = time.Now()

	purchaseAV, err := attributevalue.MarshalMap(purchase)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal promo purchase: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.PurchasesTableName),
		Item:                purchaseAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert promo purchase: %w", err)
	}

	values := map[string]types.AttributeValue{
		":sold":         &types.AttributeValueMemberS{Value: string(models.SOLD)},
		":available":    &types.AttributeValueMemberS{Value: string(models.AVAILABLE)},
		":display_name": &types.AttributeValueMemberS{Value: purchase.DisplayName},
	}
	update := "SET #status = :sold, display_name = :display_name"
	if purchase.Message != nil {
		update += ", message = :message"
		values[":message"] = &types.AttributeValueMemberS{Value: *purchase.Message}
	}
	if purchase.PromoCode != nil {
		update += ", promo_code = :promo"
		values[":promo"] = &types.AttributeValueMemberS{Value: *purchase.PromoCode}
	}

	items := make([]types.TransactWriteItem, 0, len(numbers))
	for _, number := range numbers {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.NumbersTableName),
				Key: map[string]types.AttributeValue{
					"board_id": &types.AttributeValueMemberS{Value: purchase.BoardId},
					"number":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", number)},
				},
				UpdateExpression:    aws.String(update),
				ConditionExpression: aws.String("#status = :available"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: values,
			},
		})
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		// Roll the purchase row back; a free allocation with no numbers is
		// just noise in the books.
		if _, delErr := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.PurchasesTableName),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: purchase.Id},
			},
		}); delErr != nil {
			slog.Error("failed to roll back promo purchase", "purchaseId", purchase.Id, "error", delErr)
		}

		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return nil, storage.ErrNumbersUnavailable
				}
			}
		}
		return nil, fmt.Errorf("failed to mark promo numbers sold: %w", err)
	}

	return purchase, nil
}
