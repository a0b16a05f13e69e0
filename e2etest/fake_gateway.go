//go:build e2e

package e2etest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
)

type gatewayCall struct {
	ContractID string          `json:"contract_id"`
	Method     string          `json:"method"`
	Args       json.RawMessage `json:"args"`
	Deposit    string          `json:"deposit"`
	Gas        uint64          `json:"gas"`
}

type gatewayTransfer struct {
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
}

type gatewayResponse struct {
	Status       string `json:"status"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Result       any    `json:"result,omitempty"`
}

// FakeGateway simulates the host gateway in front of an NFT contract and a
// reward token contract
type FakeGateway struct {
	server *httptest.Server

	mu       sync.Mutex
	owners   map[string]string
	balances map[string]sdkmath.Int
	// delay holds back the response of the next nft_transfer after applying it
	delay time.Duration
}

func NewFakeGateway(t *testing.T) *FakeGateway {
	g := &FakeGateway{
		owners:   make(map[string]string),
		balances: make(map[string]sdkmath.Int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/call", g.handleCall)
	mux.HandleFunc("POST /v1/transfer", g.handleTransfer)
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *FakeGateway) URL() string {
	return g.server.URL
}

func (g *FakeGateway) Mint(tokenID, owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[tokenID] = owner
}

func (g *FakeGateway) OwnerOf(tokenID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.owners[tokenID]
}

func (g *FakeGateway) BalanceOf(account string) sdkmath.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if balance, ok := g.balances[account]; ok {
		return balance
	}
	return sdkmath.ZeroInt()
}

// DelayNextTransfer makes the next nft_transfer respond only after d
func (g *FakeGateway) DelayNextTransfer(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

func (g *FakeGateway) handleCall(w http.ResponseWriter, r *http.Request) {
	var call gatewayCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		resp  gatewayResponse
		delay time.Duration
	)
	g.mu.Lock()
	switch call.Method {
	case "nft_transfer":
		var args struct {
			SenderID   string `json:"sender_id"`
			ReceiverID string `json:"receiver_id"`
			TokenID    string `json:"token_id"`
		}
		_ = json.Unmarshal(call.Args, &args)
		if g.owners[args.TokenID] != args.SenderID {
			resp = failure("Sender not approved")
			break
		}
		g.owners[args.TokenID] = args.ReceiverID
		resp = gatewayResponse{Status: "success"}
		delay, g.delay = g.delay, 0
	case "nft_token":
		var args struct {
			TokenID string `json:"token_id"`
		}
		_ = json.Unmarshal(call.Args, &args)
		resp = gatewayResponse{Status: "success"}
		if owner, ok := g.owners[args.TokenID]; ok {
			resp.Result = map[string]string{"token_id": args.TokenID, "owner_id": owner}
		}
	case "ft_transfer":
		var args struct {
			ReceiverID string      `json:"receiver_id"`
			Amount     sdkmath.Int `json:"amount"`
		}
		_ = json.Unmarshal(call.Args, &args)
		g.balances[args.ReceiverID] = g.balanceLocked(args.ReceiverID).Add(args.Amount)
		resp = gatewayResponse{Status: "success"}
	default:
		resp = failure("MethodNotFound")
	}
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	writeGatewayResponse(w, resp)
}

func (g *FakeGateway) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var transfer gatewayTransfer
	if err := json.NewDecoder(r.Body).Decode(&transfer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, ok := sdkmath.NewIntFromString(transfer.Amount)
	if !ok {
		writeGatewayResponse(w, failure("invalid amount"))
		return
	}

	g.mu.Lock()
	g.balances[transfer.ReceiverID] = g.balanceLocked(transfer.ReceiverID).Add(amount)
	g.mu.Unlock()
	writeGatewayResponse(w, gatewayResponse{Status: "success"})
}

func (g *FakeGateway) balanceLocked(account string) sdkmath.Int {
	if balance, ok := g.balances[account]; ok {
		return balance
	}
	return sdkmath.ZeroInt()
}

func failure(msg string) gatewayResponse {
	return gatewayResponse{Status: "failure", ErrorKind: "execution_failed", ErrorMessage: msg}
}

func writeGatewayResponse(w http.ResponseWriter, resp gatewayResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
