package services

import (
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

type callOutcome string

const (
	outcomeConfirmed   callOutcome = "confirmed"
	outcomeFailed      callOutcome = "failed"
	outcomeUnconfirmed callOutcome = "unconfirmed"
)

// classifyCall maps the error of a remote call to its outcome and records it
func classifyCall(kind types.CallKind, err error) callOutcome {
	outcome := outcomeUnconfirmed
	switch {
	case err == nil:
		outcome = outcomeConfirmed
	case assetclient.IsConfirmedFailure(err):
		outcome = outcomeFailed
	}

	metrics.RecordRemoteCallOutcome(kind.String(), string(outcome))
	return outcome
}

// remoteCallError is the error surfaced on the handle of a call that did not succeed
func remoteCallError(kind types.CallKind, callID string, err error) *types.Error {
	switch {
	case assetclient.IsBudgetExhausted(err):
		return types.NewError(http.StatusBadGateway, types.BudgetExhausted, err)
	case assetclient.IsConfirmedFailure(err):
		return types.NewError(http.StatusBadGateway, types.RemoteCallFailed, err)
	default:
		return types.NewError(
			http.StatusGatewayTimeout,
			types.Unconfirmed,
			fmt.Errorf("outcome of %s call %s is unknown, left to reconciliation: %w", kind, callID, err),
		)
	}
}

// failureReason is what a FAILED record keeps about the call that failed it
func failureReason(kind types.CallKind, err error) string {
	if assetclient.IsBudgetExhausted(err) {
		return fmt.Sprintf("%s: budget exhausted: %v", kind, err)
	}
	return fmt.Sprintf("%s: %v", kind, err)
}
