package websockets

import "github.com/alexm/numbers-board/pkg/models"

// MessageType defines the type of a WebSocket message.
type MessageType string

const (
	// MessageTypeNumberUpdate is for messages that announce a status change
	// on one or more board numbers.
	MessageTypeNumberUpdate MessageType = "numberUpdate"
)

// Message represents a generic WebSocket message.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// NumberUpdatePayload is the payload for a numberUpdate message. Viewers
// re-render the affected tiles without reloading the whole board.
type NumberUpdatePayload struct {
	BoardID string              `json:"board_id"`
	Numbers []int               `json:"numbers"`
	Status  models.NumberStatus `json:"status"`
}

// NewNumberUpdate builds a numberUpdate message for a status transition.
func NewNumberUpdate(boardID string, numbers []int, status models.NumberStatus) Message {
	return Message{
		Type: MessageTypeNumberUpdate,
		Payload: NumberUpdatePayload{
			BoardID: boardID,
			Numbers: numbers,
			Status:  status,
		},
	}
}
