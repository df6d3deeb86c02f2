package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/allisson/wallets/internal/did"
)

// DocumentProvider builds DID documents of hosted wallets.
type DocumentProvider interface {
	CreateDidDocument(ctx context.Context, walletID string) (*did.Document, error)
}

// RunDIDDocument prints the DID document of a hosted wallet.
func RunDIDDocument(ctx context.Context, documents DocumentProvider, walletID string, writer io.Writer) error {
	doc, err := documents.CreateDidDocument(ctx, walletID)
	if err != nil {
		return fmt.Errorf("failed to build did document: %w", err)
	}
	return writeJSON(writer, doc)
}
