// Package proof signs and verifies verifiable credentials with
// Ed25519Signature2020 linked data proofs.
//
// Documents are canonicalised with URDNA2015. The signed message is
// sha256(canonical proof options) || sha256(canonical document), and the
// signature is encoded as a multibase base58btc proofValue. Expansion runs
// in safe mode, so a property or type the contexts do not define fails the
// operation instead of being left out of the signed message.
package proof

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"
	"github.com/piprate/json-gold/ld"

	credentialDomain "github.com/allisson/wallets/internal/credential/domain"
	apperrors "github.com/allisson/wallets/internal/errors"
)

const (
	canonicalAlgorithm = "URDNA2015"
	canonicalFormat    = "application/n-quads"
)

// Engine validates credentials and creates and verifies their proofs.
type Engine interface {
	// ValidateJSONLD fails with ErrInvalidCredential when the credential is
	// not well-formed JSON-LD: every property must be defined by its
	// contexts.
	ValidateJSONLD(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
	// CreateProof signs the credential, ignoring any proof it carries.
	CreateProof(
		ctx context.Context,
		vc *credentialDomain.VerifiableCredential,
		verificationMethod string,
		privateKey ed25519.PrivateKey,
	) (*credentialDomain.Proof, error)
	// VerifyProof fails with ErrInvalidProof unless the attached proof
	// verifies against the key of its verification method.
	VerifyProof(ctx context.Context, vc *credentialDomain.VerifiableCredential) error
}

// KeyResolver resolves a verification method URI to its public key.
type KeyResolver interface {
	ResolveKey(ctx context.Context, verificationMethod string) (ed25519.PublicKey, error)
}

// Ed25519Signature2020 implements Engine.
type Ed25519Signature2020 struct {
	contexts *ContextCache
	keys     KeyResolver
	now      func() time.Time
}

// NewEd25519Signature2020 creates an Ed25519Signature2020 engine loading
// contexts through contexts and verification keys through keys.
func NewEd25519Signature2020(contexts *ContextCache, keys KeyResolver) *Ed25519Signature2020 {
	return &Ed25519Signature2020{
		contexts: contexts,
		keys:     keys,
		now:      time.Now,
	}
}

func (e *Ed25519Signature2020) options() *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.ProcessingMode = ld.JsonLd_1_1
	opts.DocumentLoader = e.contexts
	opts.SafeMode = true
	return opts
}

// expand fails with ErrInvalidCredential when doc holds a property or a
// type that its contexts do not map to an absolute IRI.
func (e *Ed25519Signature2020) expand(doc map[string]any) error {
	expanded, err := ld.NewJsonLdProcessor().Expand(ld.CloneDocument(doc), e.options())
	if err != nil {
		return apperrors.Wrap(credentialDomain.ErrInvalidCredential, fmt.Sprintf("expand JSON-LD document: %v", err))
	}
	if typ, found := relativeType(expanded); found {
		return apperrors.Wrap(
			credentialDomain.ErrInvalidCredential,
			fmt.Sprintf("type %q is not defined by the document contexts", typ),
		)
	}
	return nil
}

// relativeType returns the first @type value of an expanded document that
// is neither an absolute IRI nor a keyword such as @json.
func relativeType(v any) (string, bool) {
	switch value := v.(type) {
	case []any:
		for _, item := range value {
			if typ, found := relativeType(item); found {
				return typ, true
			}
		}
	case map[string]any:
		for key, item := range value {
			if key != "@type" {
				if typ, found := relativeType(item); found {
					return typ, true
				}
				continue
			}
			types, ok := item.([]any)
			if !ok {
				types = []any{item}
			}
			for _, t := range types {
				if typ, ok := t.(string); ok && !strings.Contains(typ, ":") && !ld.IsKeyword(typ) {
					return typ, true
				}
			}
		}
	}
	return "", false
}

// ValidateJSONLD compacts the credential against its own contexts and
// requires the result to keep the original structure. Terms missing from
// the contexts are dropped by compaction and make the check fail.
func (e *Ed25519Signature2020) ValidateJSONLD(
	_ context.Context,
	vc *credentialDomain.VerifiableCredential,
) error {
	doc, err := documentMap(vc)
	if err != nil {
		return err
	}
	input, err := documentMap(vc)
	if err != nil {
		return err
	}
	if err := e.expand(input); err != nil {
		return err
	}

	compacted, err := ld.NewJsonLdProcessor().Compact(
		input,
		map[string]any{"@context": input["@context"]},
		e.options(),
	)
	if err != nil {
		return apperrors.Wrap(credentialDomain.ErrInvalidCredential, fmt.Sprintf("compact JSON-LD document: %v", err))
	}

	if !reflect.DeepEqual(normalizeMap(doc), normalizeMap(compacted)) {
		return apperrors.Wrap(
			credentialDomain.ErrInvalidCredential,
			"JSON-LD document has a different structure after compaction",
		)
	}
	return nil
}

// CreateProof implements Engine.
func (e *Ed25519Signature2020) CreateProof(
	_ context.Context,
	vc *credentialDomain.VerifiableCredential,
	verificationMethod string,
	privateKey ed25519.PrivateKey,
) (*credentialDomain.Proof, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key size %d", len(privateKey))
	}

	proof := &credentialDomain.Proof{
		Type:               credentialDomain.ProofTypeEd25519Signature2020,
		Created:            e.now().UTC().Truncate(time.Second),
		ProofPurpose:       credentialDomain.ProofPurposeAssertionMethod,
		VerificationMethod: verificationMethod,
	}

	message, err := e.verifyData(vc, proof)
	if err != nil {
		return nil, err
	}

	proofValue, err := multibase.Encode(multibase.Base58BTC, ed25519.Sign(privateKey, message))
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof value: %w", err)
	}
	proof.ProofValue = proofValue
	return proof, nil
}

// VerifyProof implements Engine.
func (e *Ed25519Signature2020) VerifyProof(ctx context.Context, vc *credentialDomain.VerifiableCredential) error {
	proof := vc.Proof
	if proof == nil {
		return apperrors.Wrap(credentialDomain.ErrInvalidProof, "credential has no proof")
	}
	if proof.Type != credentialDomain.ProofTypeEd25519Signature2020 {
		return apperrors.Wrap(credentialDomain.ErrInvalidProof, "unsupported proof type "+proof.Type)
	}

	encoding, signature, err := multibase.Decode(proof.ProofValue)
	if err != nil || encoding != multibase.Base58BTC {
		return apperrors.Wrap(credentialDomain.ErrInvalidProof, "proof value is not multibase base58btc")
	}

	publicKey, err := e.keys.ResolveKey(ctx, proof.VerificationMethod)
	if err != nil {
		return apperrors.Wrap(
			credentialDomain.ErrInvalidProof,
			fmt.Sprintf("resolve verification method %s: %v", proof.VerificationMethod, err),
		)
	}

	unsignedProof := *proof
	unsignedProof.ProofValue = ""
	message, err := e.verifyData(vc, &unsignedProof)
	if err != nil {
		return err
	}

	if !ed25519.Verify(publicKey, message, signature) {
		return apperrors.Wrap(credentialDomain.ErrInvalidProof, "signature does not verify")
	}
	return nil
}

// verifyData returns sha256(canonical proof options) || sha256(canonical
// unsigned document).
func (e *Ed25519Signature2020) verifyData(
	vc *credentialDomain.VerifiableCredential,
	proof *credentialDomain.Proof,
) ([]byte, error) {
	doc, err := documentMap(vc.Unsigned())
	if err != nil {
		return nil, err
	}

	proofOptions := map[string]any{
		"@context":           doc["@context"],
		"type":               proof.Type,
		"created":            proof.Created.UTC().Format(time.RFC3339),
		"proofPurpose":       proof.ProofPurpose,
		"verificationMethod": proof.VerificationMethod,
	}

	canonicalOptions, err := e.canonicalize(proofOptions)
	if err != nil {
		return nil, err
	}
	canonicalDocument, err := e.canonicalize(doc)
	if err != nil {
		return nil, err
	}

	optionsHash := sha256.Sum256(canonicalOptions)
	documentHash := sha256.Sum256(canonicalDocument)
	return append(optionsHash[:], documentHash[:]...), nil
}

func (e *Ed25519Signature2020) canonicalize(doc map[string]any) ([]byte, error) {
	opts := e.options()
	opts.Algorithm = canonicalAlgorithm
	opts.Format = canonicalFormat
	opts.ProduceGeneralizedRdf = true

	if err := e.expand(doc); err != nil {
		return nil, err
	}

	view, err := ld.NewJsonLdProcessor().Normalize(doc, opts)
	if err != nil {
		return nil, apperrors.Wrap(credentialDomain.ErrInvalidCredential, fmt.Sprintf("normalize JSON-LD document: %v", err))
	}

	canonical, ok := view.(string)
	if !ok || canonical == "" {
		return nil, apperrors.Wrap(credentialDomain.ErrInvalidCredential, "JSON-LD document has no statements")
	}
	return []byte(canonical), nil
}

// documentMap returns a fresh JSON object form of the credential with the
// proof's proofValue preserved as a string.
func documentMap(vc *credentialDomain.VerifiableCredential) (map[string]any, error) {
	data, err := json.Marshal(vc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}
	return doc, nil
}

// normalizeMap drops @context and collapses single element arrays and
// id-only objects, which compaction produces from equivalent input.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "@context" {
			continue
		}
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch value := v.(type) {
	case []any:
		if len(value) == 1 {
			return normalizeValue(value[0])
		}
		out := make([]any, len(value))
		for i := range value {
			out[i] = normalizeValue(value[i])
		}
		return out
	case map[string]any:
		if id, ok := value["id"]; ok && len(value) == 1 {
			return id
		}
		return normalizeMap(value)
	default:
		return value
	}
}
