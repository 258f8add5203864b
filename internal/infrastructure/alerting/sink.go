package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// LogSink renders alerts as notification emails and writes them to the log.
type LogSink struct {
	logger zerolog.Logger
	domain string
}

// NewLogSink creates a LogSink addressing users at mailDomain.
func NewLogSink(logger zerolog.Logger, mailDomain string) *LogSink {
	if mailDomain == "" {
		mailDomain = "gmail.com"
	}
	return &LogSink{logger: logger, domain: mailDomain}
}

// Deliver logs the alert.
func (s *LogSink) Deliver(ctx context.Context, alert domain.FraudAlert) error {
	body, err := json.MarshalIndent(alert.Payload(), "", "  ")
	if err != nil {
		return err
	}

	s.logger.Warn().
		Str("event_type", domain.EventTypeTransactionFlagged).
		Str("to", fmt.Sprintf("%s@%s", alert.UserID, s.domain)).
		Str("subject", "Suspicious Transaction").
		Str("body", "A suspicious transaction occurred on your wallet:\n"+string(body)).
		Msg("fraud alert notification")

	return nil
}

// MultiSink delivers to every sink in order and joins their errors.
type MultiSink []Sink

// Deliver implements Sink.
func (m MultiSink) Deliver(ctx context.Context, alert domain.FraudAlert) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
