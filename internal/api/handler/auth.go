package handler

import (
	"net/http"

	"github.com/ayo6706/mobile-money-ledger/internal/domain"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/service"
	"github.com/google/uuid"
)

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

type registerResponse struct {
	ID          uuid.UUID        `json:"id"`
	PhoneNumber string           `json:"phone_number"`
	Role        domain.Role      `json:"role"`
	KYCStatus   domain.KYCStatus `json:"kyc_status"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

type userSummary struct {
	ID          uuid.UUID        `json:"id"`
	PhoneNumber string           `json:"phone_number"`
	Role        domain.Role      `json:"role"`
	Balance     domain.Amount    `json:"balance"`
	KYCStatus   domain.KYCStatus `json:"kyc_status"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), req.PhoneNumber, req.Role, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, registerResponse{
		ID:          account.ID,
		PhoneNumber: account.PhoneNumber,
		Role:        account.Role,
		KYCStatus:   account.KYCStatus,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.accounts.Login(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  summarize(result.Account),
	})
}

func summarize(a models.Account) userSummary {
	return userSummary{
		ID:          a.ID,
		PhoneNumber: a.PhoneNumber,
		Role:        a.Role,
		Balance:     a.Balance,
		KYCStatus:   a.KYCStatus,
	}
}
