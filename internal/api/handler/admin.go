package handler

import (
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/google/uuid"
)

// AdminHandler serves the back-office routes. Role checks happen in the
// router and again inside the services.
type AdminHandler struct {
	deposits *service.DepositService
	accounts *service.AccountService
	ledger   *service.LedgerService
}

func NewAdminHandler(deposits *service.DepositService, accounts *service.AccountService, ledger *service.LedgerService) *AdminHandler {
	return &AdminHandler{deposits: deposits, accounts: accounts, ledger: ledger}
}

type approveDepositRequest struct {
	AgentID string        `json:"agent_id"`
	Amount  domain.Amount `json:"amount"`
	Method  string        `json:"method"`
}

type approveDepositResponse struct {
	Success bool                  `json:"success"`
	Deposit service.DepositRecord `json:"deposit"`
}

type kycRequest struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type kycResponse struct {
	KYCStatus domain.KYCStatus `json:"kyc_status"`
}

func (h *AdminHandler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req approveDepositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-agent-id", "Invalid agent_id")
		return
	}

	deposit, err := h.deposits.ApproveDeposit(r.Context(), identity, agentID, req.Amount, req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, approveDepositResponse{Success: true, Deposit: deposit})
}

func (h *AdminHandler) PendingTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Pending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) UpdateKYC(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req kycRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "Invalid user_id")
		return
	}

	status, err := h.accounts.UpdateKYCStatus(r.Context(), identity, userID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, kycResponse{KYCStatus: status})
}
