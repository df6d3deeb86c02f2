package proof

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/piprate/json-gold/ld"
)

// CatenaXCredentialsContext defines the subject terms and types of the
// credentials issued by the platform. It is served from the binary and never
// fetched.
const CatenaXCredentialsContext = "https://w3id.org/catenax/credentials/v1.0.0"

//go:embed contexts/catenax-credentials-v1.jsonld
var catenaXCredentials []byte

// embeddedContexts maps a context URL to the document shipped with the binary.
var embeddedContexts = map[string][]byte{
	CatenaXCredentialsContext: catenaXCredentials,
}

// ContextCache is the JSON-LD document loader owned by the proof engine.
// Remote contexts are fetched once and kept for the life of the process;
// Preload seeds contexts that must never be fetched.
type ContextCache struct {
	mu     sync.Mutex
	loader *ld.CachingDocumentLoader
}

// NewContextCache creates a ContextCache fetching misses with client. A nil
// client uses http.DefaultClient. The embedded contexts are preloaded.
func NewContextCache(client *http.Client) *ContextCache {
	if client == nil {
		client = http.DefaultClient
	}
	c := &ContextCache{
		loader: ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(client)),
	}
	for url, document := range embeddedContexts {
		if err := c.Preload(url, document); err != nil {
			panic(err)
		}
	}
	return c
}

// Preload stores document under url.
func (c *ContextCache) Preload(url string, document []byte) error {
	parsed, err := ld.DocumentFromReader(bytes.NewReader(document))
	if err != nil {
		return fmt.Errorf("failed to parse context %s: %w", url, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.AddDocument(url, parsed)
	return nil
}

// LoadDocument implements ld.DocumentLoader.
func (c *ContextCache) LoadDocument(url string) (*ld.RemoteDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.LoadDocument(url)
}
