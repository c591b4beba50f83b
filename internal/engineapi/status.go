package engineapi

import "github.com/ethereum/go-ethereum/common"

// Status is one of the four engine-API payload statuses.
type Status string

const (
	ValidStatus   Status = "VALID"
	InvalidStatus Status = "INVALID"
	SyncingStatus Status = "SYNCING"
	AcceptedStatus Status = "ACCEPTED"
)

// PayloadStatus is engine_newPayloadV3's response shape.
type PayloadStatus struct {
	Status          Status       `json:"status"`
	LatestValidHash *common.Hash `json:"latestValidHash"`
	ValidationError *string      `json:"validationError"`
}

func valid(hash common.Hash) *PayloadStatus {
	return &PayloadStatus{Status: ValidStatus, LatestValidHash: &hash}
}

func syncing() *PayloadStatus {
	return &PayloadStatus{Status: SyncingStatus}
}

func invalid(latestValid *common.Hash, msg string) *PayloadStatus {
	return &PayloadStatus{Status: InvalidStatus, LatestValidHash: latestValid, ValidationError: &msg}
}

// unsupportedForkError is engine API error code -38005: the payload's fork,
// resolved from its block number and timestamp, isn't Cancun. This fails the
// request itself rather than the payload, so it's returned as the method's
// error rather than folded into a PayloadStatus.
type unsupportedForkError struct{}

func (unsupportedForkError) Error() string { return "engine API: fork at payload is not Cancun" }
func (unsupportedForkError) ErrorCode() int { return -38005 }

var errUnsupportedFork error = unsupportedForkError{}
