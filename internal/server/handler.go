// internal/server/handler.go
//
// Package server 提供帳本的 HTTP JSON 介面。
// 每個 handler 只負責：
//  1. 解析請求
//  2. 呼叫 ledger.Engine
//  3. 以 writeJSON / writeErr 回應
//
// 帳本不依賴 HTTP；「目前使用者」的餘額每次都從帳本重新讀取。
package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"goonpay/internal/ledger"
)

// Server 為 HTTP 層核心結構。
type Server struct {
	Ledger *ledger.Engine
	logger *slog.Logger
}

// NewServer 建立 HTTP 伺服器；logger 為 nil 時使用 slog.Default()。
func NewServer(l *ledger.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Ledger: l, logger: logger}
}

// maxBodyBytes 為單一請求內容的上限。
const maxBodyBytes = 4 << 10

// decodeJSON 讀取至多 maxBodyBytes 的請求內容並解析為 v。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// amountText 接受 JSON 數字或字串，保留使用者輸入的原始文字交給帳本解析。
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	*a = amountText(b)
	return nil
}

// signup 處理 POST /signup。
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req ledger.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w)
		return
	}
	a, err := s.Ledger.SignUp(req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": ledger.SignupSucceeded,
		"account": a,
	})
}

// login 處理 POST /login。
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w)
		return
	}
	a, err := s.Ledger.Login(req.Username, req.Password)
	if err != nil {
		s.logger.Info("login rejected", "username", req.Username)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": a})
}

// account 處理 GET /accounts/{id}。
func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	a, err := s.Ledger.Account(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// transactions 處理 GET /accounts/{id}/transactions，最新的在前。
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Ledger.Account(id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Ledger.TransactionsFor(id))
}

// summary 處理 GET /accounts/{id}/summary。
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Ledger.Summary(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// transfer 處理 POST /accounts/{id}/transfers：
//
//	{"recipient": "alice", "amount": "200.00", "note": "lunch"}
//
// 成功回傳 201 與交易紀錄及付款方最新帳戶狀態。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string     `json:"recipient"`
		Amount    amountText `json:"amount"`
		Note      string     `json:"note"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w)
		return
	}
	from := chi.URLParam(r, "id")
	tx, err := s.Ledger.Transfer(ledger.TransferRequest{
		FromAccountID:     from,
		RecipientUsername: req.Recipient,
		Amount:            string(req.Amount),
		Note:              req.Note,
	})
	if err != nil {
		if ledger.IsInternal(err) {
			s.logger.Error("transfer failed", "from", from, "error", err)
		}
		writeErr(w, err)
		return
	}

	a, err := s.Ledger.Account(from)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     ledger.TransferSucceeded(tx),
		"transaction": tx,
		"account":     a,
	})
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
