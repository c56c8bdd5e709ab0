package handler

import (
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
)

type TransferHandler struct {
	svc *service.TransferService
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

type transferRequest struct {
	RecipientPhone string        `json:"recipient_phone"`
	Amount         domain.Amount `json:"amount"`
}

type transferResponse struct {
	Success       bool          `json:"success"`
	TransactionID int64         `json:"transaction_id"`
	NewBalance    domain.Amount `json:"new_balance"`
}

func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.svc.Transfer(r.Context(), identity, req.RecipientPhone, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, transferResponse{
		Success:       true,
		TransactionID: result.EntryID,
		NewBalance:    result.NewBalance,
	})
}
