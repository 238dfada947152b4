package httpserver

import (
	"net/http"

	"xbin/internal/middleware"
)

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	wallets, err := s.deps.Wallets.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wallets": toWalletViews(wallets)})
}

func (s *Server) handleUpdateWalletAddress(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	var req struct {
		CryptoType    string `json:"crypto_type"`
		WalletAddress string `json:"wallet_address"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	updated, err := s.deps.Wallets.UpdateAddress(r.Context(), claims.UserID, req.CryptoType, req.WalletAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, walletView{
		ID:             updated.ID,
		CryptoType:     updated.CryptoType,
		Balance:        updated.Balance,
		PendingBalance: updated.PendingBalance,
		WalletAddress:  updated.WalletAddress,
	})
}
