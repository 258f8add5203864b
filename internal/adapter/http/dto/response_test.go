package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

var at = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestTransactionFromDomain_TransferLegs(t *testing.T) {
	out, in := domain.NewTransferLegs("tx-out", "tx-in", "alice", "bob", decimal.NewFromInt(30), "USD", at)

	outResp := TransactionFromDomain(out)
	if outResp.Type != "transfer-out" || outResp.To != "bob" || outResp.From != "" {
		t.Fatalf("unexpected transfer-out response: %+v", outResp)
	}

	inResp := TransactionFromDomain(in)
	if inResp.Type != "transfer-in" || inResp.From != "alice" || inResp.To != "" {
		t.Fatalf("unexpected transfer-in response: %+v", inResp)
	}
}

func TestTransactionFromDomain_JSONShape(t *testing.T) {
	tx := domain.NewWithdrawal("tx-1", decimal.RequireFromString("1500.25"), "USD", at)
	tx.Flag([]string{"Large withdrawal"})

	data, err := json.Marshal(TransactionFromDomain(tx))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	body := string(data)
	for _, want := range []string{
		`"type":"withdraw"`,
		`"amount":"1500.25"`,
		`"date":"2024-05-01T10:00:00Z"`,
		`"flagged":true`,
		`"alerts":["Large withdrawal"]`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
	if strings.Contains(body, `"to"`) {
		t.Fatalf("withdrawal must not carry a counterparty: %s", body)
	}
}

func TestTopUsersFromReport(t *testing.T) {
	report := &usecase.TopUsersReport{
		ByBalance:          []usecase.UserRanking{{UserID: "alice", TotalBalance: decimal.NewFromInt(10), TransactionCount: 1}},
		ByTransactionCount: []usecase.UserRanking{},
	}

	resp := TopUsersFromReport(report)
	if len(resp.TopByBalance) != 1 || resp.TopByBalance[0].Username != "alice" {
		t.Fatalf("unexpected ranking: %+v", resp)
	}

	data, _ := json.Marshal(resp)
	if !strings.Contains(string(data), `"topByTransactionVolume":[]`) {
		t.Fatalf("expected empty list, got %s", data)
	}
}

func TestConsistencyFromReport(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalAccounts:      2,
		ReconciledAccounts: 1,
		LedgerConsistent:   false,
		LedgerError:        "mismatch",
		Discrepancies: []*usecase.ReconciliationResult{{
			UserID:            "bob",
			Currency:          "USD",
			RecordedBalance:   decimal.NewFromInt(10),
			CalculatedBalance: decimal.NewFromInt(5),
			Difference:        decimal.NewFromInt(5),
		}},
		CheckedAt: at,
	}

	resp := ConsistencyFromReport(report)
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].Username != "bob" {
		t.Fatalf("unexpected discrepancies: %+v", resp.Discrepancies)
	}
	if resp.LedgerConsistent || resp.LedgerError != "mismatch" {
		t.Fatalf("unexpected ledger status: %+v", resp)
	}
}
