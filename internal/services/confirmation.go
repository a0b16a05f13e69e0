package services

import (
	"context"
	"net/http"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

// Result is the terminal outcome of a confirmed operation
type Result struct {
	CallID string `json:"call_id"`
	// State of the record after the confirmation, RELEASED when it was removed
	State types.StakeState `json:"state"`
	// Amount paid by a claim
	Amount *sdkmath.Int `json:"amount,omitempty"`
}

// Confirmation is the pending handle of an operation that dispatched a remote call
type Confirmation struct {
	callID string
	done   chan struct{}
	result *Result
	err    *types.Error
}

func newConfirmation(callID string) *Confirmation {
	return &Confirmation{
		callID: callID,
		done:   make(chan struct{}),
	}
}

// completedConfirmation is returned by operations that finish without a remote call
func completedConfirmation(result *Result) *Confirmation {
	c := newConfirmation(result.CallID)
	c.resolve(result, nil)
	return c
}

func (c *Confirmation) resolve(result *Result, err *types.Error) {
	c.result = result
	c.err = err
	close(c.done)
}

func (c *Confirmation) CallID() string {
	return c.callID
}

// Done is closed once the outcome is known
func (c *Confirmation) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the outcome is known or ctx is done, in which case ctx.Err() is returned
func (c *Confirmation) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the outcome. Before Done is closed it reports UNCONFIRMED.
func (c *Confirmation) Result() (*Result, *types.Error) {
	select {
	case <-c.done:
		return c.result, c.err
	default:
		return nil, types.NewErrorWithMsg(http.StatusAccepted, types.Unconfirmed, "remote call not confirmed yet")
	}
}

// dispatch runs continuation in its own goroutine. The continuation outlives the
// request: it keeps the request logger but not its cancellation.
func (s *Service) dispatch(
	ctx context.Context, callID string, continuation func(ctx context.Context) (*Result, *types.Error),
) *Confirmation {
	c := newConfirmation(callID)
	ctx = context.WithoutCancel(ctx)

	s.confirmations.Add(1)
	go func() {
		defer s.confirmations.Done()
		result, err := continuation(ctx)
		if err != nil {
			log.Ctx(ctx).Warn().
				Str("call_id", callID).
				Stringer("error_code", err.ErrorCode).
				Err(err).
				Msg("remote call did not succeed")
		}
		c.resolve(result, err)
	}()
	return c
}
