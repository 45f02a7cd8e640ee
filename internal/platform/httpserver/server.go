package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	ledgerservice "curio/contexts/marketplace/ledger-service"
	ledgererrors "curio/contexts/marketplace/ledger-service/domain/errors"
	"curio/contexts/marketplace/ledger-service/ports"
	ledgerhttp "curio/contexts/marketplace/ledger-service/transport/http"
	registryservice "curio/contexts/marketplace/registry-service"
	registryerrors "curio/contexts/marketplace/registry-service/domain/errors"
	registryhttp "curio/contexts/marketplace/registry-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "curio/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	ledger   ledgerservice.Module
	registry registryservice.Module
}

func New(
	ledger ledgerservice.Module,
	registry registryservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		ledger:   ledger,
		registry: registry,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/market/tokens", s.handleMintToken)
	s.mux.HandleFunc("GET /v1/market/tokens", s.handleListTokens)
	s.mux.HandleFunc("GET /v1/market/tokens/{token_id}", s.handleGetToken)
	s.mux.HandleFunc("PUT /v1/market/tokens/{token_id}/price", s.handleSetPrice)
	s.mux.HandleFunc("GET /v1/market/tokens/{token_id}/price", s.handleGetPrice)
	s.mux.HandleFunc("GET /v1/market/tokens/{token_id}/royalty", s.handleGetRoyalty)
	s.mux.HandleFunc("POST /v1/market/tokens/{token_id}/purchase", s.handlePurchaseToken)
	s.mux.HandleFunc("POST /v1/market/tokens/{token_id}/auction", s.handleStartAuction)
	s.mux.HandleFunc("GET /v1/market/tokens/{token_id}/auction", s.handleGetAuction)
	s.mux.HandleFunc("POST /v1/market/tokens/{token_id}/auction/bids", s.handlePlaceBid)
	s.mux.HandleFunc("POST /v1/market/tokens/{token_id}/auction/settle", s.handleSettleAuction)
	s.mux.HandleFunc("POST /v1/market/treasury/withdraw", s.handleWithdraw)
	s.mux.HandleFunc("POST /v1/market/accounts/{account_id}/deposit", s.handleDeposit)
	s.mux.HandleFunc("GET /v1/market/accounts/{account_id}/balance", s.handleGetBalance)
	s.mux.HandleFunc("GET /v1/market/events", s.handleListEvents)

	s.mux.HandleFunc("GET /v1/registry/tokens/{token_id}/owner", s.handleGetOwner)
	s.mux.HandleFunc("GET /v1/registry/owners/{owner}/tokens", s.handleListByOwner)
	s.mux.HandleFunc("DELETE /v1/registry/tokens/{token_id}", s.handleBurnToken)
}

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}

	var req ledgerhttp.MintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.MintTokenHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.TokenListFilter{Cursor: query.Get("cursor")}

	if soldRaw := query.Get("sold"); soldRaw != "" {
		sold, err := strconv.ParseBool(soldRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_sold", "sold must be a boolean")
			return
		}
		filter.Sold = &sold
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	resp, err := s.ledger.Handler.ListTokensHandler(r.Context(), filter)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetTokenHandler(r.Context(), tokenID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.SetPriceHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		tokenID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetPriceHandler(r.Context(), tokenID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRoyalty(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetRoyaltyHandler(r.Context(), tokenID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchaseToken(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.PurchaseTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.BuyTokenHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		tokenID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.StartAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.StartAuctionHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		tokenID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetAuctionHandler(r.Context(), tokenID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.PlaceBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.PlaceBidHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		tokenID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettleAuction(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}

	resp, err := s.ledger.Handler.SettleAuctionHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		tokenID,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}

	resp, err := s.ledger.Handler.WithdrawHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.PathValue("account_id"))
	if accountID == "" {
		writeLedgerError(w, http.StatusBadRequest, "invalid_account", "account_id is required")
		return
	}

	var req ledgerhttp.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.DepositHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		accountID,
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.PathValue("account_id"))
	if accountID == "" {
		writeLedgerError(w, http.StatusBadRequest, "invalid_account", "account_id is required")
		return
	}
	resp, err := s.ledger.Handler.GetBalanceHandler(r.Context(), accountID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var afterSequence uint64
	if afterRaw := query.Get("after_sequence"); afterRaw != "" {
		parsed, err := strconv.ParseUint(afterRaw, 10, 64)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_after_sequence", "after_sequence must be a non-negative integer")
			return
		}
		afterSequence = parsed
	}

	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.ledger.Handler.ListEventsHandler(r.Context(), afterSequence, limit)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetOwnerHandler(r.Context(), tokenID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.PathValue("owner"))
	if owner == "" {
		writeRegistryError(w, http.StatusBadRequest, "invalid_owner", "owner is required")
		return
	}
	resp, err := s.registry.Handler.ListByOwnerHandler(r.Context(), owner)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBurnToken(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get("X-Account-Id")
	if accountID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_account", "X-Account-Id header is required")
		return
	}
	tokenID, ok := parseTokenID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.BurnTokenHandler(r.Context(), accountID, tokenID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidRequest),
		errors.Is(err, ledgererrors.ErrInvalidRoyalty),
		errors.Is(err, ledgererrors.ErrInvalidDuration),
		errors.Is(err, ledgererrors.ErrInvalidAmount):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrIdempotencyKeyRequired):
		writeLedgerError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, ledgererrors.ErrTokenNotFound):
		writeLedgerError(w, http.StatusNotFound, "token_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAccountNotFound):
		writeLedgerError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrNoActiveAuction):
		writeLedgerError(w, http.StatusNotFound, "no_active_auction", err.Error())
	case errors.Is(err, ledgererrors.ErrTokenAlreadySold):
		writeLedgerError(w, http.StatusConflict, "token_already_sold", err.Error())
	case errors.Is(err, ledgererrors.ErrSupplyExhausted):
		writeLedgerError(w, http.StatusConflict, "supply_exhausted", err.Error())
	case errors.Is(err, ledgererrors.ErrAuctionActive):
		writeLedgerError(w, http.StatusConflict, "auction_active", err.Error())
	case errors.Is(err, ledgererrors.ErrAuctionUnsettled):
		writeLedgerError(w, http.StatusConflict, "auction_unsettled", err.Error())
	case errors.Is(err, ledgererrors.ErrAuctionNotEnded):
		writeLedgerError(w, http.StatusConflict, "auction_not_ended", err.Error())
	case errors.Is(err, ledgererrors.ErrTransferFailed):
		writeLedgerError(w, http.StatusConflict, "transfer_failed", err.Error())
	case errors.Is(err, ledgererrors.ErrIdempotencyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrAuctionEnded):
		writeLedgerError(w, http.StatusGone, "auction_ended", err.Error())
	case errors.Is(err, ledgererrors.ErrWrongPayment):
		writeLedgerError(w, http.StatusUnprocessableEntity, "wrong_payment", err.Error())
	case errors.Is(err, ledgererrors.ErrBidTooLow):
		writeLedgerError(w, http.StatusUnprocessableEntity, "bid_too_low", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientFunds):
		writeLedgerError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, ledgererrors.ErrAdminRequired):
		writeLedgerError(w, http.StatusForbidden, "admin_required", err.Error())
	case errors.Is(err, ledgererrors.ErrDependencyUnavailable):
		writeLedgerError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	// Registry preconditions surface through ledger operations via the
	// ownership port; keep them client errors rather than 500s.
	case errors.Is(err, registryerrors.ErrTokenNotFound):
		writeLedgerError(w, http.StatusNotFound, "token_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrTokenAlreadyBound):
		writeLedgerError(w, http.StatusConflict, "token_already_bound", err.Error())
	case errors.Is(err, registryerrors.ErrNotOwner):
		writeLedgerError(w, http.StatusConflict, "ownership_conflict", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidRequest):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registryerrors.ErrTokenNotFound):
		writeRegistryError(w, http.StatusNotFound, "token_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrTokenAlreadyBound):
		writeRegistryError(w, http.StatusConflict, "token_already_bound", err.Error())
	case errors.Is(err, registryerrors.ErrNotOwner):
		writeRegistryError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, registryerrors.ErrAdminRequired):
		writeRegistryError(w, http.StatusForbidden, "admin_required", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func parseTokenID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("token_id")
	tokenID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || tokenID == 0 {
		writeLedgerError(w, http.StatusBadRequest, "invalid_token_id", "token_id must be a positive integer")
		return 0, false
	}
	return tokenID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
