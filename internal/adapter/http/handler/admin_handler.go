package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/usecase"
)

// ReportService defines the behavior needed by AdminHandler.
type ReportService interface {
	FlaggedReport(ctx context.Context) ([]usecase.FlaggedAccount, error)
	BalancesReport(ctx context.Context) (map[string]map[string]decimal.Decimal, error)
	TopUsers(ctx context.Context, n int) (*usecase.TopUsersReport, error)
}

// ConsistencyService produces reconciliation reports.
type ConsistencyService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// AdminHandler serves read-only reports.
type AdminHandler struct {
	reports ReportService
	recon   ConsistencyService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reports ReportService, recon ConsistencyService) *AdminHandler {
	return &AdminHandler{reports: reports, recon: recon}
}

// Flagged lists suspicious transactions per user.
func (h *AdminHandler) Flagged(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.FlaggedReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to build flagged report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FlaggedFromReport(report))
}

// Balances lists balances of active users.
func (h *AdminHandler) Balances(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.BalancesReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to build balances report", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// TopUsers ranks active users by balance and activity.
func (h *AdminHandler) TopUsers(w http.ResponseWriter, r *http.Request) {
	n := parseIntQuery(r, "n", usecase.DefaultTopUsers)

	report, err := h.reports.TopUsers(r.Context(), n)
	if err != nil {
		writeDomainError(w, "failed to build top users report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TopUsersFromReport(report))
}

// Consistency reconciles every account against its transaction log.
func (h *AdminHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.recon.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.ConsistencyFromReport(report))
}
