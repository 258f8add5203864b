// Package fraud screens new transactions against simple heuristics.
package fraud

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// Alert reasons attached to flagged transactions.
const (
	ReasonVelocity        = "Multiple transfers in short period"
	ReasonLargeWithdrawal = "Large withdrawal"
)

// Defaults
const (
	DefaultVelocityWindow = 5 * time.Minute
	DefaultVelocityLimit  = 3
)

// DefaultLargeWithdrawalThreshold is the amount a withdrawal must exceed to be flagged.
var DefaultLargeWithdrawalThreshold = decimal.NewFromInt(1000)

// Config tunes the heuristics.
type Config struct {
	VelocityWindow           time.Duration
	VelocityLimit            int
	LargeWithdrawalThreshold decimal.Decimal
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		VelocityWindow:           DefaultVelocityWindow,
		VelocityLimit:            DefaultVelocityLimit,
		LargeWithdrawalThreshold: DefaultLargeWithdrawalThreshold,
	}
}

// Detector evaluates candidate transactions. It holds no mutable state and
// is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector. Zero-valued fields fall back to defaults.
func NewDetector(cfg Config) *Detector {
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = DefaultVelocityWindow
	}
	if cfg.VelocityLimit <= 0 {
		cfg.VelocityLimit = DefaultVelocityLimit
	}
	if !cfg.LargeWithdrawalThreshold.IsPositive() {
		cfg.LargeWithdrawalThreshold = DefaultLargeWithdrawalThreshold
	}
	return &Detector{cfg: cfg}
}

// Config returns the effective configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Evaluate returns the alert reasons for candidate, in rule order. history is
// the account log before the candidate was appended; candidate itself is
// never looked up in it. A nil result means the transaction is clean.
func (d *Detector) Evaluate(history []*domain.Transaction, candidate *domain.Transaction, now time.Time) []string {
	var reasons []string

	if d.exceedsVelocity(history, candidate, now) {
		reasons = append(reasons, ReasonVelocity)
	}

	if d.isLargeWithdrawal(candidate) {
		reasons = append(reasons, ReasonLargeWithdrawal)
	}

	return reasons
}

// exceedsVelocity counts live transfer-outs inside the trailing window,
// the candidate included when it is one.
func (d *Detector) exceedsVelocity(history []*domain.Transaction, candidate *domain.Transaction, now time.Time) bool {
	count := 0
	if d.inWindow(candidate, now) {
		count++
	}

	// History is chronological, so scan from the newest entry and stop at
	// the first transaction older than the window.
	for i := len(history) - 1; i >= 0; i-- {
		tx := history[i]
		if now.Sub(tx.Timestamp()) >= d.cfg.VelocityWindow {
			break
		}
		if d.inWindow(tx, now) {
			count++
		}
	}

	return count > d.cfg.VelocityLimit
}

func (d *Detector) inWindow(tx *domain.Transaction, now time.Time) bool {
	if tx == nil || tx.IsDeleted() || tx.Kind() != domain.KindTransferOut {
		return false
	}
	age := now.Sub(tx.Timestamp())
	return age >= 0 && age < d.cfg.VelocityWindow
}

func (d *Detector) isLargeWithdrawal(candidate *domain.Transaction) bool {
	return candidate != nil &&
		candidate.Kind() == domain.KindWithdraw &&
		candidate.Amount().GreaterThan(d.cfg.LargeWithdrawalThreshold)
}
