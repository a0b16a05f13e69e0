package model

import (
	"strings"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

const StakeRecordCollection = "stake_records"

// StakeRecordDocument is one locked asset instance of an account
type StakeRecordDocument struct {
	// ID is the (owner, asset id) key, see StakeKey
	ID          string           `bson:"_id"`
	Owner       string           `bson:"owner"`
	AssetID     string           `bson:"asset_id"`
	State       types.StakeState `bson:"state"`
	StakedAt    int64            `bson:"staked_at"`
	LastClaimAt int64            `bson:"last_claim_at"`
	// PendingCall is the id of the remote call awaiting confirmation, empty when none.
	// Every conditional write compares it, so it doubles as the record's in-flight lock.
	PendingCall     string         `bson:"pending_call"`
	PendingCallKind types.CallKind `bson:"pending_call_kind"`
	PendingClaimAt  int64          `bson:"pending_claim_at"`
	FailureReason   string         `bson:"failure_reason"`
	UpdatedAt       int64          `bson:"updated_at"`
}

// StakeKey builds the primary key of a record. Account ids never contain '/',
// so the owner part of the key is unambiguous whatever the asset id contains.
func StakeKey(owner, assetID string) string {
	return owner + "/" + assetID
}

// OwnerKeyPrefix is the common prefix of every key that belongs to owner
func OwnerKeyPrefix(owner string) string {
	return owner + "/"
}

// SplitStakeKey is the reverse of StakeKey
func SplitStakeKey(key string) (owner, assetID string, ok bool) {
	return strings.Cut(key, "/")
}

func NewStakeRecordDocument(owner, assetID string, acceptedAt int64, callID string) *StakeRecordDocument {
	return &StakeRecordDocument{
		ID:              StakeKey(owner, assetID),
		Owner:           owner,
		AssetID:         assetID,
		State:           types.StatePending,
		StakedAt:        acceptedAt,
		LastClaimAt:     acceptedAt,
		PendingCall:     callID,
		PendingCallKind: types.CallKindStake,
		UpdatedAt:       acceptedAt,
	}
}

// InFlight reports whether the record awaits a remote call confirmation
func (r *StakeRecordDocument) InFlight() bool {
	return r.PendingCall != ""
}
