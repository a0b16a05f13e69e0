package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// handlerFunc is an http.HandlerFunc returning the error to answer with
type handlerFunc func(w http.ResponseWriter, r *http.Request) *types.Error

func wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err *types.Error) {
	// internal details stay in the log
	message := err.Error()
	if err.StatusCode >= http.StatusInternalServerError && err.ErrorCode == types.InternalServiceError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal service error"
	}

	writeJSON(w, err.StatusCode, ErrorResponse{
		ErrorCode: err.ErrorCode.String(),
		Message:   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// parseJSON decodes a strict JSON body. An empty body leaves v untouched.
func parseJSON(r *http.Request, v any) *types.Error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "invalid request body: "+err.Error())
	}
	return nil
}
