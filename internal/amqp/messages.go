package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Recompute request reasons carried in messages and logs.
const (
	ReasonTransactionCreated = "transaction_created"
	ReasonTransactionDeleted = "transaction_deleted"
	ReasonGoalCreated        = "goal_created"
	ReasonGoalDeleted        = "goal_deleted"
	ReasonManual             = "manual"
	ReasonScheduled          = "scheduled"
)

// RecommendationRecomputeMessage asks the worker to rebuild the plan.
// It carries only request metadata; the worker loads the current ledger
// and goals from the database when it processes the message.
type RecommendationRecomputeMessage struct {
	RequestID   string    `json:"request_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRecommendationRecomputeMessage creates a recompute request with a fresh request ID
func NewRecommendationRecomputeMessage(reason string) *RecommendationRecomputeMessage {
	return &RecommendationRecomputeMessage{
		RequestID:   uuid.NewString(),
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecommendationRecomputeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RecommendationRecomputeMessageFromJSON(data []byte) (*RecommendationRecomputeMessage, error) {
	var msg RecommendationRecomputeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
