package services

import (
	"context"
	"fmt"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

type Claimable struct {
	Amount sdkmath.Int `json:"amount"`
	// Staked is false when caller has no record for the asset
	Staked       bool             `json:"staked"`
	State        types.StakeState `json:"state,omitempty"`
	ClockAnomaly bool             `json:"clock_anomaly"`
}

type StakePublic struct {
	Owner         string           `json:"owner"`
	AssetID       string           `json:"asset_id"`
	State         types.StakeState `json:"state"`
	StakedAt      int64            `json:"staked_at"`
	LastClaimAt   int64            `json:"last_claim_at"`
	PendingCall   string           `json:"pending_call,omitempty"`
	PendingKind   types.CallKind   `json:"pending_call_kind,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`
}

type StakesPage struct {
	Stakes    []StakePublic `json:"stakes"`
	NextToken string        `json:"next_key"`
}

type listStakesRequest struct {
	Owner string `validate:"account_id"`
}

// GetClaimable reports the reward caller could claim right now for assetID.
// An asset caller never staked reports zero, not an error.
func (s *Service) GetClaimable(ctx context.Context, caller, assetID string) (*Claimable, *types.Error) {
	if err := s.validateRequest(&stakeRequest{Caller: caller, AssetID: assetID}); err != nil {
		return nil, err
	}

	record, err := s.getOwnedRecord(ctx, caller, assetID)
	if err != nil {
		if err.ErrorCode == types.NotFound {
			return &Claimable{Amount: sdkmath.ZeroInt()}, nil
		}
		return nil, err
	}

	accrual := s.calculator.Accrued(record, s.nowUnix())
	if accrual.ClockAnomaly {
		metrics.IncClockAnomalies()
	}
	return &Claimable{
		Amount:       accrual.Amount,
		Staked:       record.State == types.StateStaked,
		State:        record.State,
		ClockAnomaly: accrual.ClockAnomaly,
	}, nil
}

// ListStakes returns one page of the records of owner, FAILED ones included
func (s *Service) ListStakes(
	ctx context.Context, owner, paginationToken string, limit int64,
) (*StakesPage, *types.Error) {
	if err := s.validateRequest(&listStakesRequest{Owner: owner}); err != nil {
		return nil, err
	}

	maxLimit := s.cfg.Db.MaxPaginationLimit
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	result, err := s.db.ListStakes(ctx, owner, paginationToken, limit)
	if err != nil {
		if db.IsInvalidPaginationTokenError(err) {
			return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid pagination token")
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to list stakes: %w", err))
	}

	stakes := make([]StakePublic, 0, len(result.Data))
	for _, record := range result.Data {
		stakes = append(stakes, fromStakeRecord(record))
	}
	return &StakesPage{
		Stakes:    stakes,
		NextToken: result.PaginationToken,
	}, nil
}

func fromStakeRecord(record model.StakeRecordDocument) StakePublic {
	return StakePublic{
		Owner:         record.Owner,
		AssetID:       record.AssetID,
		State:         record.State,
		StakedAt:      record.StakedAt,
		LastClaimAt:   record.LastClaimAt,
		PendingCall:   record.PendingCall,
		PendingKind:   record.PendingCallKind,
		FailureReason: record.FailureReason,
	}
}
