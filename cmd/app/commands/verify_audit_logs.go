package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
)

// RunVerifyAuditLogs verifies the cryptographic integrity of audit entries
// within a time range. It recomputes the HMAC-SHA256 signature of every entry
// against the KEK-derived signing key recorded for it, so rotated-out KEKs
// still verify their old entries.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditUC auditUseCase.AuditUseCase,
	kekChain *cryptoDomain.KekChain,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit entries",
		slog.Time("start_date", start),
		slog.Time("end_date", end),
	)

	filter := auditDomain.Filter{From: &start, To: &end}
	report, err := auditUC.VerifyBatch(ctx, kekChain, filter)
	if err != nil {
		return fmt.Errorf("failed to verify audit entries: %w", err)
	}

	if format == "json" {
		if err := outputVerifyJSON(writer, report); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, report, start, end)
	}

	logger.Info("verification completed",
		slog.Int("total_checked", report.Checked),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", len(report.Invalid)),
	)

	if !report.Intact() {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", len(report.Invalid))
	}

	return nil
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(writer io.Writer, report *auditDomain.IntegrityReport, start, end time.Time) {
	_, _ = fmt.Fprintf(writer, "Audit Trail Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "==================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		start.Format("2006-01-02 15:04:05"),
		end.Format("2006-01-02 15:04:05"),
	)

	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.Checked)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.Valid)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", len(report.Invalid))

	if !report.Intact() {
		_, _ = fmt.Fprintf(writer, "WARNING: %d entry(ies) failed integrity check!\n\n", len(report.Invalid))
		_, _ = fmt.Fprintf(writer, "Invalid Entry IDs:\n")
		for _, id := range report.Invalid {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
		return
	}

	_, _ = fmt.Fprintf(writer, "Status: OK\n")
}

// outputVerifyJSON outputs the verification result as JSON.
func outputVerifyJSON(writer io.Writer, report *auditDomain.IntegrityReport) error {
	payload := struct {
		Checked int      `json:"checked"`
		Valid   int      `json:"valid"`
		Invalid []string `json:"invalid_entry_ids"`
		Intact  bool     `json:"intact"`
	}{
		Checked: report.Checked,
		Valid:   report.Valid,
		Invalid: make([]string, 0, len(report.Invalid)),
		Intact:  report.Intact(),
	}
	for _, id := range report.Invalid {
		payload.Invalid = append(payload.Invalid, id.String())
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
