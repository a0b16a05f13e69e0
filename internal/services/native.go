package services

import (
	"context"
	"fmt"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

type nativeTransferRequest struct {
	Caller   string `validate:"account_id"`
	Receiver string `validate:"account_id"`
	Amount   string `validate:"required,number"`
}

// TransferNative sends amount of the native asset from the service account to
// receiver. It touches no ledger record and only the admin account may use it.
func (s *Service) TransferNative(ctx context.Context, caller, receiver, amount string) *types.Error {
	if err := s.validateRequest(&nativeTransferRequest{Caller: caller, Receiver: receiver, Amount: amount}); err != nil {
		return err
	}
	if caller != s.cfg.Contract.AdminAccount {
		return types.NewErrorWithMsg(http.StatusForbidden, types.NotOwner, "only the admin account may transfer native funds")
	}

	value, ok := sdkmath.NewIntFromString(amount)
	if !ok || !value.IsPositive() {
		return types.NewValidationFailedError(fmt.Errorf("amount must be a positive integer, got %q", amount))
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	err := s.native.Transfer(callCtx, receiver, value, s.cfg.Budget.NativeTransfer())
	if classifyCall(types.CallKindTransfer, err) != outcomeConfirmed {
		return remoteCallError(types.CallKindTransfer, "", err)
	}

	log.Ctx(ctx).Info().
		Str("receiver", receiver).
		Stringer("amount", value).
		Msg("native funds transferred")
	return nil
}
