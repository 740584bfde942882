package storage

import (
	"context"

	"github.com/alexm/numbers-board/pkg/models"
)

// NumberReader defines the interface for reading board inventory.
type NumberReader interface {
	// ListBoardNumbers retrieves every number on a board, ordered by number.
	ListBoardNumbers(ctx context.Context, boardID string) ([]models.BoardNumber, error)

	// GetBoardNumbers retrieves specific numbers on a board.
	GetBoardNumbers(ctx context.Context, boardID string, numbers []int) ([]models.BoardNumber, error)
}

// NumberSeeder defines the privileged interface for provisioning a board's inventory.
type NumberSeeder interface {
	// SeedBoard creates numbers 1..count for a board, all available.
	// Fails with ErrBoardAlreadySeeded if the board has any numbers.
	SeedBoard(ctx context.Context, boardID string, count int) error
}
