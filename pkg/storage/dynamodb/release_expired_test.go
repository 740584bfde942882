package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage/dynamodb/mocks"
)

func TestReleaseExpiredHolds(t *testing.T) {
	now := time.Now()

	expiredNumber := func(holdID string, n int) map[string]types.AttributeValue {
		expiry := now.Add(-time.Minute)
		av, _ := attributevalue.MarshalMap(models.BoardNumber{
			BoardId:       "board-1",
			Number:        n,
			Status:        models.HELD,
			HoldId:        &holdID,
			HoldExpiresAt: &expiry,
		})
		return av
	}

	t.Run("Releases Expired Numbers", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, NumbersTableName: "numbers", HoldsTableName: "holds"}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				expiredNumber("hold-a", 7),
				expiredNumber("hold-a", 8),
				expiredNumber("hold-b", 12),
			},
		}, nil)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil)
		mockClient.On("DeleteItem", mock.Anything, mock.Anything).Return(&dynamodb.DeleteItemOutput{}, nil)

		released, err := store.ReleaseExpiredHolds(context.Background(), now)

		assert.NoError(t, err)
		assert.Equal(t, 3, released)
		// One stale hold row per distinct hold, not per number.
		mockClient.AssertNumberOfCalls(t, "DeleteItem", 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Nothing Expired", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, NumbersTableName: "numbers", HoldsTableName: "holds"}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)

		released, err := store.ReleaseExpiredHolds(context.Background(), now)

		assert.NoError(t, err)
		assert.Equal(t, 0, released)
		mockClient.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
	})

	t.Run("Finalization Won The Race", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, NumbersTableName: "numbers", HoldsTableName: "holds"}

		mockClient.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{expiredNumber("hold-a", 7)},
		}, nil)
		// The number was sold between the query and the conditional release.
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		released, err := store.ReleaseExpiredHolds(context.Background(), now)

		assert.NoError(t, err)
		assert.Equal(t, 0, released)
		mockClient.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything)
	})
}
