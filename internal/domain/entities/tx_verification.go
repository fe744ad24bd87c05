package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// TxVerificationStatus represents confirmation state of a settlement
// reference. Once the status leaves pending it is terminal.
type TxVerificationStatus string

const (
	TxVerificationPending   TxVerificationStatus = "pending"
	TxVerificationConfirmed TxVerificationStatus = "confirmed"
	TxVerificationFailed    TxVerificationStatus = "failed"
)

// TxVerificationMaxAttempts bounds receipt polling: the record is marked
// failed when the counter reaches this value with no receipt.
const TxVerificationMaxAttempts = 10

// TxVerification tracks confirmation of a submitted settlement reference.
type TxVerification struct {
	ID           uuid.UUID            `json:"id"`
	TxHash       string               `json:"txHash"`
	ExperimentID null.String          `json:"experimentId,omitempty"`
	Status       TxVerificationStatus `json:"status"`
	GasUsed      null.String          `json:"gasUsed,omitempty"`
	BlockNumber  null.Int64           `json:"blockNumber,omitempty"`
	RevertReason null.String          `json:"revertReason,omitempty"`
	Attempts     int                  `json:"attempts"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}
