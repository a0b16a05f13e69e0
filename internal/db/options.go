package db

import (
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"go.mongodb.org/mongo-driver/bson"
)

type updateOptions struct {
	stakedAt       *int64
	lastClaimAt    *int64
	pendingCall    *string
	pendingKind    *types.CallKind
	pendingClaimAt *int64
	failureReason  *string
	updatedAt      *int64
}

type UpdateOption func(*updateOptions)

func WithStakedAt(ts int64) UpdateOption {
	return func(o *updateOptions) {
		o.stakedAt = &ts
	}
}

func WithLastClaimAt(ts int64) UpdateOption {
	return func(o *updateOptions) {
		o.lastClaimAt = &ts
	}
}

// WithPendingCall sets the in-flight call of the record
func WithPendingCall(callID string, kind types.CallKind, claimAt int64) UpdateOption {
	return func(o *updateOptions) {
		o.pendingCall = &callID
		o.pendingKind = &kind
		o.pendingClaimAt = &claimAt
	}
}

// WithoutPendingCall releases the in-flight lock of the record
func WithoutPendingCall() UpdateOption {
	return WithPendingCall("", types.CallKindNone, 0)
}

func WithFailureReason(reason string) UpdateOption {
	return func(o *updateOptions) {
		o.failureReason = &reason
	}
}

func WithUpdatedAt(ts int64) UpdateOption {
	return func(o *updateOptions) {
		o.updatedAt = &ts
	}
}

func newUpdateOptions(opts []UpdateOption) *updateOptions {
	options := &updateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// setFields returns the mongo $set document for the options
func (o *updateOptions) setFields(newState types.StakeState) bson.M {
	fields := bson.M{
		"state": newState.String(),
	}
	if o.stakedAt != nil {
		fields["staked_at"] = *o.stakedAt
	}
	if o.lastClaimAt != nil {
		fields["last_claim_at"] = *o.lastClaimAt
	}
	if o.pendingCall != nil {
		fields["pending_call"] = *o.pendingCall
		fields["pending_call_kind"] = o.pendingKind.String()
		fields["pending_claim_at"] = *o.pendingClaimAt
	}
	if o.failureReason != nil {
		fields["failure_reason"] = *o.failureReason
	}
	if o.updatedAt != nil {
		fields["updated_at"] = *o.updatedAt
	}
	return fields
}

// apply mutates an in-memory record the same way setFields mutates a stored document
func (o *updateOptions) apply(record *model.StakeRecordDocument, newState types.StakeState) {
	record.State = newState
	if o.stakedAt != nil {
		record.StakedAt = *o.stakedAt
	}
	if o.lastClaimAt != nil {
		record.LastClaimAt = *o.lastClaimAt
	}
	if o.pendingCall != nil {
		record.PendingCall = *o.pendingCall
		record.PendingCallKind = *o.pendingKind
		record.PendingClaimAt = *o.pendingClaimAt
	}
	if o.failureReason != nil {
		record.FailureReason = *o.failureReason
	}
	if o.updatedAt != nil {
		record.UpdatedAt = *o.updatedAt
	}
}
