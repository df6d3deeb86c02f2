package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	"github.com/allisson/wallets/internal/summary"
)

// Sweep recomputes the summary of every wallet.
type Sweep interface {
	Sweep(ctx context.Context) (summary.SweepResult, error)
}

// RunRecomputeSummaries recomputes the summary credential of one wallet, or
// of every wallet when walletID is empty.
func RunRecomputeSummaries(
	ctx context.Context,
	recomputer summary.Recomputer,
	sweep Sweep,
	logger *slog.Logger,
	walletID string,
	format string,
	writer io.Writer,
) error {
	if walletID != "" {
		logger.Info("recomputing summary", slog.String("wallet_id", walletID))

		vc, err := recomputer.Recompute(ctx, walletID)
		if err != nil {
			return fmt.Errorf("failed to recompute summary: %w", err)
		}
		return outputSummary(vc, format, writer)
	}

	logger.Info("recomputing every summary")
	result, err := sweep.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to recompute summaries: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]int64{
			"recomputed": result.Recomputed,
			"failed":     result.Failed,
		})
	}
	_, _ = fmt.Fprintf(writer, "Recomputed %d summary credential(s), %d failed\n", result.Recomputed, result.Failed)
	return nil
}

func outputSummary(vc *credentialDomain.VerifiableCredential, format string, writer io.Writer) error {
	if format == "json" {
		return writeJSON(writer, vc)
	}
	_, _ = fmt.Fprintln(writer, "Summary recomputed successfully!")
	_, _ = fmt.Fprintf(writer, "Credential ID: %s\n", vc.ID)
	_, _ = fmt.Fprintf(writer, "Items: %v\n", vc.CredentialSubject["items"])
	_, _ = fmt.Fprintf(writer, "Expires: %s\n", vc.ExpirationDate.Format(time.RFC3339))
	return nil
}
