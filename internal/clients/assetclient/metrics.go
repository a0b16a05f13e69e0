package assetclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
)

// ClientWithMetrics records the latency of every contract call
type ClientWithMetrics struct {
	client *Client
}

func NewClientWithMetrics(client *Client) *ClientWithMetrics {
	return &ClientWithMetrics{client: client}
}

func (c *ClientWithMetrics) NftTransfer(ctx context.Context, req *NftTransferRequest, gas uint64) error {
	_, err := runWithMetrics(c.client.nftContractID, "nft_transfer", func() (struct{}, error) {
		return struct{}{}, c.client.NftTransfer(ctx, req, gas)
	})
	return err
}

func (c *ClientWithMetrics) NftToken(ctx context.Context, tokenID string, gas uint64) (*Token, error) {
	return runWithMetrics(c.client.nftContractID, "nft_token", func() (*Token, error) {
		return c.client.NftToken(ctx, tokenID, gas)
	})
}

func (c *ClientWithMetrics) FtTransfer(ctx context.Context, req *FtTransferRequest, gas uint64) error {
	_, err := runWithMetrics(c.client.ftContractID, "ft_transfer", func() (struct{}, error) {
		return struct{}{}, c.client.FtTransfer(ctx, req, gas)
	})
	return err
}

func (c *ClientWithMetrics) Transfer(ctx context.Context, receiverID string, amount sdkmath.Int, gas uint64) error {
	_, err := runWithMetrics("native", "transfer", func() (struct{}, error) {
		return struct{}{}, c.client.Transfer(ctx, receiverID, amount, gas)
	})
	return err
}

func runWithMetrics[T any](contract, method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordContractCallLatency(duration, contract, method, err != nil)
	return v, err
}
