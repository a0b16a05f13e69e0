package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/services"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// CallerHeader carries the account id authenticated by the gateway in front of the service
const CallerHeader = "X-Caller-Account-Id"

type StakingService interface {
	Stake(ctx context.Context, caller, assetID string, approvalID *uint64) (*services.Confirmation, *types.Error)
	Unstake(ctx context.Context, caller, assetID string) (*services.Confirmation, *types.Error)
	Claim(ctx context.Context, caller, assetID string) (*services.Confirmation, *types.Error)
	Reconcile(ctx context.Context, caller, owner, assetID string) (*services.Confirmation, *types.Error)
	GetClaimable(ctx context.Context, caller, assetID string) (*services.Claimable, *types.Error)
	ListStakes(ctx context.Context, owner, paginationToken string, limit int64) (*services.StakesPage, *types.Error)
	TransferNative(ctx context.Context, caller, receiver, amount string) *types.Error
}

type Handler struct {
	cfg     *config.Config
	service StakingService
	db      db.DbInterface
}

type PendingResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}

type stakeBody struct {
	ApprovalID *uint64 `json:"approval_id"`
}

type reconcileBody struct {
	Owner string `json:"owner"`
}

type nativeTransferBody struct {
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
}

func NewHandler(cfg *config.Config, service StakingService, store db.DbInterface) *Handler {
	return &Handler{
		cfg:     cfg,
		service: service,
		db:      store,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthcheck", h.healthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/stakes/{assetId}", wrap(h.stake))
		r.Delete("/stakes/{assetId}", wrap(h.unstake))
		r.Post("/stakes/{assetId}/claim", wrap(h.claim))
		r.Post("/stakes/{assetId}/reconcile", wrap(h.reconcile))
		r.Get("/stakes/{assetId}/claimable", wrap(h.claimable))
		r.Get("/accounts/{owner}/stakes", wrap(h.listStakes))
		r.Post("/transfers/native", wrap(h.transferNative))
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("healthcheck failed to reach the database")
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			ErrorCode: types.InternalServiceError.String(),
			Message:   "database unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func caller(r *http.Request) string {
	return r.Header.Get(CallerHeader)
}

func (h *Handler) stake(w http.ResponseWriter, r *http.Request) *types.Error {
	var body stakeBody
	if err := parseJSON(r, &body); err != nil {
		return err
	}

	c, err := h.service.Stake(r.Context(), caller(r), chi.URLParam(r, "assetId"), body.ApprovalID)
	if err != nil {
		return err
	}
	return h.respondConfirmation(w, r, c)
}

func (h *Handler) unstake(w http.ResponseWriter, r *http.Request) *types.Error {
	c, err := h.service.Unstake(r.Context(), caller(r), chi.URLParam(r, "assetId"))
	if err != nil {
		return err
	}
	return h.respondConfirmation(w, r, c)
}

func (h *Handler) claim(w http.ResponseWriter, r *http.Request) *types.Error {
	c, err := h.service.Claim(r.Context(), caller(r), chi.URLParam(r, "assetId"))
	if err != nil {
		return err
	}
	return h.respondConfirmation(w, r, c)
}

// reconcile takes the record owner from the body or the owner query parameter,
// defaulting to the caller
func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) *types.Error {
	var body reconcileBody
	if err := parseJSON(r, &body); err != nil {
		return err
	}
	owner := body.Owner
	if owner == "" {
		owner = r.URL.Query().Get("owner")
	}
	if owner == "" {
		owner = caller(r)
	}

	c, err := h.service.Reconcile(r.Context(), caller(r), owner, chi.URLParam(r, "assetId"))
	if err != nil {
		return err
	}
	return h.respondConfirmation(w, r, c)
}

func (h *Handler) claimable(w http.ResponseWriter, r *http.Request) *types.Error {
	claimable, err := h.service.GetClaimable(r.Context(), caller(r), chi.URLParam(r, "assetId"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, claimable)
	return nil
}

func (h *Handler) listStakes(w http.ResponseWriter, r *http.Request) *types.Error {
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	page, err := h.service.ListStakes(
		r.Context(), chi.URLParam(r, "owner"), r.URL.Query().Get("pagination_key"), limit,
	)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, page)
	return nil
}

func (h *Handler) transferNative(w http.ResponseWriter, r *http.Request) *types.Error {
	var body nativeTransferBody
	if err := parseJSON(r, &body); err != nil {
		return err
	}

	if err := h.service.TransferNative(r.Context(), caller(r), body.ReceiverID, body.Amount); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
	return nil
}

// respondConfirmation answers 202 with the call id, or the terminal result when
// the request asked to wait and the confirmation arrived within the wait timeout
func (h *Handler) respondConfirmation(w http.ResponseWriter, r *http.Request, c *services.Confirmation) *types.Error {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Server.WaitTimeout)
		defer cancel()
		_ = c.Wait(ctx)
	}

	select {
	case <-c.Done():
	default:
		writeJSON(w, http.StatusAccepted, PendingResponse{CallID: c.CallID(), Status: "pending"})
		return nil
	}

	result, err := c.Result()
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}
