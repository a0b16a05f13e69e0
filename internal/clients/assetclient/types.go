package assetclient

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// oneYocto is the deposit required by transfer methods of the asset contracts
const oneYocto = "1"

type NftTransferRequest struct {
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	TokenID    string  `json:"token_id"`
	ApprovalID *uint64 `json:"approval_id"`
	Memo       string  `json:"memo,omitempty"`
}

type nftTokenRequest struct {
	TokenID string `json:"token_id"`
}

// Token is the view of an NFT returned by nft_token
type Token struct {
	TokenID string `json:"token_id"`
	OwnerID string `json:"owner_id"`
}

type FtTransferRequest struct {
	ReceiverID string      `json:"receiver_id"`
	Amount     sdkmath.Int `json:"amount"`
	Memo       string      `json:"memo,omitempty"`
}

type CallErrorKind string

const (
	ExecutionFailed CallErrorKind = "execution_failed"
	BudgetExhausted CallErrorKind = "budget_exhausted"
)

// CallError is a definitive failure reported by the gateway for an accepted call.
// Any other error from this package leaves the outcome of the call unknown.
type CallError struct {
	Contract string
	Method   string
	Kind     CallErrorKind
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s.%s failed (%s): %s", e.Contract, e.Method, e.Kind, e.Message)
}

// IsConfirmedFailure reports whether the call is known to have failed
func IsConfirmedFailure(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}

func IsBudgetExhausted(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr) && callErr.Kind == BudgetExhausted
}
