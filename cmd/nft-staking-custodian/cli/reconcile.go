package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/tracing"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ReconcileCmd runs one reconciliation pass and exits
// Usage: ./nft-staking-custodian reconcile --config config.yml [--owner <account> --asset <token id>]
func ReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile stuck or failed stakes against token ownership",
		Args:  cobra.ExactArgs(0),
		RunE:  reconcile,
	}

	cmd.Flags().String("owner", "", "Owner account of a single record to reconcile")
	cmd.Flags().String("asset", "", "Asset id of a single record to reconcile")

	return cmd
}

func reconcile(cmd *cobra.Command, _ []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	owner, err := cmd.Flags().GetString("owner")
	if err != nil {
		return fmt.Errorf("failed to parse owner flag: %w", err)
	}
	assetID, err := cmd.Flags().GetString("asset")
	if err != nil {
		return fmt.Errorf("failed to parse asset flag: %w", err)
	}
	if (owner == "") != (assetID == "") {
		return fmt.Errorf("--owner and --asset must be given together")
	}

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s, err := newStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.close(closeCtx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to close")
		}
	}()

	if owner == "" {
		if err := s.service.ReconcileStuckStakes(ctx); err != nil {
			return fmt.Errorf("reconciliation sweep incomplete: %w", err)
		}
		log.Ctx(ctx).Info().Msg("reconciliation sweep done")
		return nil
	}

	// the command acts as the admin account
	c, rErr := s.service.Reconcile(ctx, cfg.Contract.AdminAccount, owner, assetID)
	if rErr != nil {
		return rErr
	}

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Gateway.CallTimeout+time.Minute)
	defer cancel()
	if err := c.Wait(waitCtx); err != nil {
		return fmt.Errorf("reconciliation of %s not confirmed: %w", assetID, err)
	}
	result, rErr := c.Result()
	if rErr != nil {
		return rErr
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Stringer("state", result.State).
		Msg("stake reconciled")
	return nil
}
