// Package did builds did:web identifiers for wallets, assembles their DID
// documents and resolves DIDs back to documents and verification keys.
//
// A wallet's DID is did:web:<host>:<walletId>. The host's port separator is
// percent-encoded, so the document of did:web:localhost%3A8080:BPNL0000000000AB
// is served at https://localhost:8080/BPNL0000000000AB/did.json.
package did

import (
	"net/url"
	"strings"

	"github.com/allisson/wallets/internal/errors"
)

const (
	methodPrefix = "did:web:"
	documentPath = "/did.json"
	wellKnown    = "/.well-known/did.json"
)

// FromWalletID returns the did:web identifier of a wallet hosted on host.
func FromWalletID(host, walletID string) string {
	return methodPrefix + strings.ReplaceAll(host, ":", "%3A") + ":" + walletID
}

// VerificationMethodID returns the id of a key within a DID document.
func VerificationMethodID(did, keyID string) string {
	return did + "#" + keyID
}

// Parse splits a wallet DID into its host and wallet id.
func Parse(did string) (host, walletID string, err error) {
	parts, err := components(did)
	if err != nil {
		return "", "", err
	}
	if len(parts) != 2 || parts[1] == "" {
		return "", "", errors.Wrap(ErrInvalidDID, did)
	}
	return parts[0], parts[1], nil
}

// WalletIDFromDID returns the wallet id of a wallet DID hosted on host.
func WalletIDFromDID(host, did string) (string, error) {
	didHost, walletID, err := Parse(did)
	if err != nil {
		return "", err
	}
	if didHost != host {
		return "", errors.Wrap(ErrForeignHost, didHost)
	}
	return walletID, nil
}

// WebURL returns the location of the DID document. useHTTP selects plain
// HTTP, which is only meant for local development.
func WebURL(did string, useHTTP bool) (string, error) {
	parts, err := components(did)
	if err != nil {
		return "", err
	}

	protocol := "https://"
	if useHTTP {
		protocol = "http://"
	}

	if len(parts) == 1 {
		return protocol + parts[0] + wellKnown, nil
	}
	return protocol + strings.Join(parts, "/") + documentPath, nil
}

// SplitVerificationMethod splits a verification method URI into its DID and
// fragment.
func SplitVerificationMethod(verificationMethod string) (did, fragment string, err error) {
	did, fragment, ok := strings.Cut(verificationMethod, "#")
	if !ok || did == "" || fragment == "" {
		return "", "", errors.Wrap(ErrInvalidDID, verificationMethod)
	}
	return did, fragment, nil
}

func components(did string) ([]string, error) {
	specific, ok := strings.CutPrefix(did, methodPrefix)
	if !ok || specific == "" || strings.ContainsAny(did, "#?") {
		return nil, errors.Wrap(ErrInvalidDID, did)
	}

	parts := strings.Split(specific, ":")
	host, err := url.PathUnescape(parts[0])
	if err != nil || host == "" {
		return nil, errors.Wrap(ErrInvalidDID, did)
	}
	parts[0] = host
	return parts, nil
}
