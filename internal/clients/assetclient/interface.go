package assetclient

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// Every method returns nil on confirmed success, a *CallError on confirmed
// failure and any other error when the outcome is unknown.

//go:generate mockery --name=NFTContract --output=../../../tests/mocks --outpkg=mocks --filename=mock_nft_contract.go
type NFTContract interface {
	NftTransfer(ctx context.Context, req *NftTransferRequest, gas uint64) error
	// NftToken returns nil without error when the token does not exist
	NftToken(ctx context.Context, tokenID string, gas uint64) (*Token, error)
}

//go:generate mockery --name=FTContract --output=../../../tests/mocks --outpkg=mocks --filename=mock_ft_contract.go
type FTContract interface {
	FtTransfer(ctx context.Context, req *FtTransferRequest, gas uint64) error
}

//go:generate mockery --name=NativeTransferer --output=../../../tests/mocks --outpkg=mocks --filename=mock_native_transferer.go
type NativeTransferer interface {
	Transfer(ctx context.Context, receiverID string, amount sdkmath.Int, gas uint64) error
}
