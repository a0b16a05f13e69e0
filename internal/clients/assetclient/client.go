package assetclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/client"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	callPath     = "/v1/call"
	transferPath = "/v1/transfer"

	statusSuccess = "success"
	statusFailure = "failure"
)

type callRequest struct {
	ContractID string `json:"contract_id"`
	Method     string `json:"method"`
	Args       any    `json:"args"`
	Deposit    string `json:"deposit"`
	Gas        uint64 `json:"gas"`
}

type transferRequest struct {
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
	Gas        uint64 `json:"gas"`
}

type callResponse struct {
	Status       string          `json:"status"`
	ErrorKind    CallErrorKind   `json:"error_kind"`
	ErrorMessage string          `json:"error_message"`
	Result       json.RawMessage `json:"result"`
}

// Client executes calls on the asset contracts through the host gateway
type Client struct {
	httpClient    *http.Client
	cfg           *config.GatewayConfig
	nftContractID string
	ftContractID  string
}

func NewClient(cfg *config.GatewayConfig, contract *config.ContractConfig) *Client {
	return &Client{
		httpClient:    &http.Client{},
		cfg:           cfg,
		nftContractID: contract.NftContractID,
		ftContractID:  contract.FtContractID,
	}
}

func (c *Client) GetBaseURL() string {
	return strings.TrimRight(c.cfg.Endpoint, "/")
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *Client) NftTransfer(ctx context.Context, req *NftTransferRequest, gas uint64) error {
	_, err := c.call(ctx, c.nftContractID, "nft_transfer", req, oneYocto, gas)
	return err
}

func (c *Client) NftToken(ctx context.Context, tokenID string, gas uint64) (*Token, error) {
	result, err := c.call(ctx, c.nftContractID, "nft_token", &nftTokenRequest{TokenID: tokenID}, "0", gas)
	if err != nil {
		return nil, err
	}

	var token *Token
	if len(result) > 0 {
		if err := json.Unmarshal(result, &token); err != nil {
			return nil, fmt.Errorf("failed to decode nft_token result: %w", err)
		}
	}
	return token, nil
}

func (c *Client) FtTransfer(ctx context.Context, req *FtTransferRequest, gas uint64) error {
	_, err := c.call(ctx, c.ftContractID, "ft_transfer", req, oneYocto, gas)
	return err
}

func (c *Client) Transfer(ctx context.Context, receiverID string, amount sdkmath.Int, gas uint64) error {
	req := &transferRequest{
		ReceiverID: receiverID,
		Amount:     amount.String(),
		Gas:        gas,
	}
	opts := &client.HttpClientOptions{
		Path:         transferPath,
		TemplatePath: transferPath,
	}

	resp, err := clientCallWithRetry(ctx, func() (*callResponse, error) {
		return client.SendRequest[transferRequest, callResponse](ctx, c, http.MethodPost, opts, req)
	}, c.cfg)
	if err != nil {
		return err
	}

	_, err = resp.outcome("native", "transfer")
	return err
}

func (c *Client) call(
	ctx context.Context, contractID, method string, args any, deposit string, gas uint64,
) (json.RawMessage, error) {
	req := &callRequest{
		ContractID: contractID,
		Method:     method,
		Args:       args,
		Deposit:    deposit,
		Gas:        gas,
	}
	opts := &client.HttpClientOptions{
		Path:         callPath,
		TemplatePath: callPath,
	}

	resp, err := clientCallWithRetry(ctx, func() (*callResponse, error) {
		return client.SendRequest[callRequest, callResponse](ctx, c, http.MethodPost, opts, req)
	}, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s.%s: %w", contractID, method, err)
	}

	return resp.outcome(contractID, method)
}

func (r *callResponse) outcome(contractID, method string) (json.RawMessage, error) {
	switch r.Status {
	case statusSuccess:
		return r.Result, nil
	case statusFailure:
		kind := r.ErrorKind
		if kind != BudgetExhausted {
			kind = ExecutionFailed
		}
		return nil, &CallError{
			Contract: contractID,
			Method:   method,
			Kind:     kind,
			Message:  r.ErrorMessage,
		}
	default:
		return nil, fmt.Errorf("unknown status %q returned for %s.%s", r.Status, contractID, method)
	}
}

// clientCallWithRetry retries only responses the gateway produced before
// accepting the call. An accepted call is never sent twice.
func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.GatewayConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(client.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("gateway did not accept the call, retrying")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
