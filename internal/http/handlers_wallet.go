package http

import (
	"errors"
	"net/http"
	"strings"

	"secondbrain/internal/core"
	applog "secondbrain/internal/log"
	"secondbrain/internal/ofx"
	"secondbrain/internal/wallet"
)

type accountRequest struct {
	Name    string     `json:"name"`
	Balance core.Money `json:"balance"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type transactionRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	AccountID   string               `json:"accountId"`
	CategoryID  string               `json:"categoryId"`
	Date        core.Date            `json:"date"`
	Kind        core.TransactionKind `json:"kind"`
	Confirmed   bool                 `json:"confirmed"`
}

type budgetRequest struct {
	Name         string     `json:"name"`
	TargetAmount core.Money `json:"targetAmount"`
	ImageURL     string     `json:"imageUrl"`
	TargetDate   *core.Date `json:"targetDate"`
}

func (b budgetRequest) params() wallet.BudgetParams {
	return wallet.BudgetParams{
		Name:         sanitizeInput(b.Name),
		TargetAmount: b.TargetAmount,
		ImageURL:     strings.TrimSpace(b.ImageURL),
		TargetDate:   b.TargetDate,
	}
}

type transferRequest struct {
	Amount    core.Money `json:"amount"`
	AccountID string     `json:"accountId"`
}

// dispatch runs a ledger command and writes its result. Deletions answer
// 204.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, status int, cmd wallet.Command) {
	result, err := s.svc.Ledger.Dispatch(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result == nil {
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	NewJSONResponse().Status(status).Data(result).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Ledger.Accounts()).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.svc.Ledger.Account(pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(acc).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusCreated, wallet.CreateAccountCmd{
		Name:    sanitizeInput(req.Name),
		Opening: req.Balance,
	})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusOK, wallet.UpdateAccountCmd{
		ID:      pathID(r, "id"),
		Name:    sanitizeInput(req.Name),
		Balance: req.Balance,
	})
}

func (s *Server) handleToggleIncludeInBudget(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusOK, wallet.ToggleIncludeInBudgetCmd{ID: pathID(r, "id")})
}

// handleDeleteAccount expects the account receiving the transactions in the
// reassignTo query parameter.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusNoContent, wallet.DeleteAccountCmd{
		ID:         pathID(r, "id"),
		ReassignTo: strings.TrimSpace(r.URL.Query().Get("reassignTo")),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Ledger.Categories()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusCreated, wallet.CreateCategoryCmd{
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusOK, wallet.UpdateCategoryCmd{
		ID:    pathID(r, "id"),
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusNoContent, wallet.DeleteCategoryCmd{ID: pathID(r, "id")})
}

// handleListTransactions supports accountId, categoryId, from, to and limit
// query filters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := optionalDate(q, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := optionalDate(q, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs := s.svc.Ledger.ListTransactions(wallet.TransactionFilter{
		AccountID:  strings.TrimSpace(q.Get("accountId")),
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
		From:       from,
		To:         to,
		Limit:      limit,
	})
	NewJSONResponse().Data(txs).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Ledger.Transaction(pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

// handleRecordTransaction answers 409 with code confirmation_required when
// an expense would overdraw a budgeted account; resend with confirmed set
// to proceed.
func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Kind == "" {
		req.Kind = core.KindExpense
	}
	if req.Date.IsZero() {
		now := s.now().UTC()
		req.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	result, err := s.svc.Ledger.Dispatch(r.Context(), wallet.RecordTransactionCmd{
		RecordTransactionParams: wallet.RecordTransactionParams{
			Description: sanitizeInput(req.Description),
			Amount:      req.Amount,
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
			Date:        req.Date,
			Kind:        req.Kind,
			Confirmed:   req.Confirmed,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx := result.(core.Transaction)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionRecorded(r.Context(), tx.ID, tx.Description, tx.Amount.Cents, tx.AccountID, tx.CategoryID)
	NewJSONResponse().Status(http.StatusCreated).Data(tx).Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Confirmed {
		writeError(w, r, core.Invalid("confirmed", errors.New("only applies when recording")))
		return
	}
	s.dispatch(w, r, http.StatusOK, wallet.EditTransactionCmd{
		ID: pathID(r, "id"),
		EditTransactionParams: wallet.EditTransactionParams{
			Description: sanitizeInput(req.Description),
			Amount:      req.Amount,
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
			Date:        req.Date,
			Kind:        req.Kind,
		},
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusNoContent, wallet.DeleteTransactionCmd{ID: pathID(r, "id")})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Ledger.Budgets()).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Ledger.Budget(pathID(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusCreated, wallet.CreateBudgetCmd{BudgetParams: req.params()})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusOK, wallet.UpdateBudgetCmd{ID: pathID(r, "id"), BudgetParams: req.params()})
}

// handleDeleteBudget returns the saved amount to the account named by the
// transferAccountId query parameter.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, http.StatusNoContent, wallet.DeleteBudgetCmd{
		ID:                pathID(r, "id"),
		TransferAccountID: strings.TrimSpace(r.URL.Query().Get("transferAccountId")),
	})
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusCreated, wallet.AllocateCmd{
		BudgetID:        pathID(r, "id"),
		Amount:          req.Amount,
		SourceAccountID: req.AccountID,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.dispatch(w, r, http.StatusCreated, wallet.WithdrawCmd{
		BudgetID:      pathID(r, "id"),
		Amount:        req.Amount,
		DestAccountID: req.AccountID,
	})
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Ledger.Totals()).Write(w)
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	p := ParseMonthParams(r.URL.Query(), s.now())
	NewJSONResponse().Data(s.svc.Ledger.MonthOverview(p.Year, p.Month)).Write(w)
}

// handleImportOFX reads a multipart upload with the statement in the file
// field and the target account in accountId. categoryId is optional.
func (s *Server) handleImportOFX(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, core.Invalid("file", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, core.Invalid("file", err))
		return
	}
	defer file.Close()

	entries, err := ofx.NewParser().Parse(r.Context(), file)
	if err != nil {
		writeError(w, r, core.Invalid("file", err))
		return
	}

	accountID := strings.TrimSpace(r.FormValue("accountId"))
	categoryID := strings.TrimSpace(r.FormValue("categoryId"))
	res, err := s.svc.Ledger.ImportStatement(r.Context(), accountID, categoryID, entries)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogStatementImported(r.Context(), header.Filename, accountID, res.Imported, res.Skipped)
	NewJSONResponse().Data(res).Write(w)
}
