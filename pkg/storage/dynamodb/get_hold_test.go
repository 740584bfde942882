package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/alexm/numbers-board/pkg/models"
	"github.com/alexm/numbers-board/pkg/storage"
	"github.com/alexm/numbers-board/pkg/storage/dynamodb/mocks"
)

func TestGetHold(t *testing.T) {
	hold := &models.Hold{
		Id:        "hold-abc",
		BoardId:   "board-1",
		Email:     "a@b.c",
		ExpiresAt: time.Now().Add(5 * time.Minute).UTC(),
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, HoldsTableName: "holds"}

		holdAV, _ := attributevalue.MarshalMap(hold)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: holdAV}, nil)

		got, err := store.GetHold(context.Background(), "hold-abc")

		assert.NoError(t, err)
		assert.Equal(t, hold.Id, got.Id)
		assert.Equal(t, hold.BoardId, got.BoardId)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, HoldsTableName: "holds"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := store.GetHold(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrHoldNotFound)
	})

	t.Run("Client Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, HoldsTableName: "holds"}

		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("get failed"))

		_, err := store.GetHold(context.Background(), "hold-abc")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get hold")
	})
}
