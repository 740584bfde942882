package storage

import "errors"

// ErrNumbersUnavailable is returned when one or more requested numbers are no
// longer available, including losing the claim race to a concurrent buyer.
var ErrNumbersUnavailable = errors.New("one or more numbers are not available")

// ErrHoldNotFound is returned when a referenced hold does not exist, which
// usually means it already expired or was already finalized.
var ErrHoldNotFound = errors.New("hold not found")

// ErrBoardAlreadySeeded is returned when seeding a board that already has numbers.
var ErrBoardAlreadySeeded = errors.New("board already has numbers")
