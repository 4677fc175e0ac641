// internal/server/response.go
//
// 統一 HTTP 回應格式：成功回應為 JSON；錯誤回應為 {"error": 訊息, "kind": 類別}。
// 帳本錯誤與 HTTP 狀態碼的對應集中在 statusOf。

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"goonpay/internal/ledger"
)

// errorBody 為錯誤回應的 JSON 結構。
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 將帳本錯誤轉為對應的狀態碼與單一使用者訊息。
func writeErr(w http.ResponseWriter, err error) {
	code, kind := statusOf(err)
	writeJSON(w, code, errorBody{Error: ledger.Message(err), Kind: kind})
}

// writeBadRequest 用於無法解析的請求內容。
func writeBadRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body", Kind: "bad_request"})
}

// errorKinds 依序比對；ErrInternal 必須排在最前面。
var errorKinds = []struct {
	err  error
	code int
	kind string
}{
	{ledger.ErrInternal, http.StatusInternalServerError, "internal"},
	{ledger.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{ledger.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{ledger.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{ledger.ErrRecipientNotFound, http.StatusNotFound, "recipient_not_found"},
	{ledger.ErrAccountNotFound, http.StatusNotFound, "account_not_found"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{ledger.ErrSelfTransfer, http.StatusBadRequest, "self_transfer"},
	{ledger.ErrPasswordMismatch, http.StatusBadRequest, "password_mismatch"},
	{ledger.ErrWeakCredential, http.StatusBadRequest, "weak_credential"},
	{ledger.ErrInvalidUsername, http.StatusBadRequest, "invalid_username"},
}

func statusOf(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.code, k.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}
