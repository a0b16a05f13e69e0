package model

import (
	"testing"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestStakeKey(t *testing.T) {
	key := StakeKey("alice.near", "collection/T1")
	assert.Equal(t, "alice.near/collection/T1", key)

	owner, assetID, ok := SplitStakeKey(key)
	assert.True(t, ok)
	assert.Equal(t, "alice.near", owner)
	assert.Equal(t, "collection/T1", assetID)
}

func TestNewStakeRecordDocument(t *testing.T) {
	rec := NewStakeRecordDocument("alice.near", "T1", 100, "call-1")

	assert.Equal(t, types.StatePending, rec.State)
	assert.Equal(t, int64(100), rec.StakedAt)
	assert.Equal(t, rec.StakedAt, rec.LastClaimAt)
	assert.Equal(t, types.CallKindStake, rec.PendingCallKind)
	assert.True(t, rec.InFlight())
}
