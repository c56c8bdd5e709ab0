package handler

import (
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
)

type AccountHandler struct {
	accounts *service.AccountService
	ledger   *service.LedgerService
}

func NewAccountHandler(accounts *service.AccountService, ledger *service.LedgerService) *AccountHandler {
	return &AccountHandler{accounts: accounts, ledger: ledger}
}

type balanceResponse struct {
	Balance domain.Amount `json:"balance"`
}

// GetBalance returns the caller's committed balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.accounts.GetBalance(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// GetTransactions returns every ledger entry the caller sent or received, newest first.
func (h *AccountHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.ledger.History(r.Context(), identity.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}
