package proof

// VocabContext is a JSON-LD context mapping every term into one vocabulary.
// Offline deployments (JSONLD_OFFLINE_VOCAB) and tests preload it under the
// credential context URLs instead of fetching the published contexts.
const VocabContext = `{"@context":{"@vocab":"https://example.org/vocab#","id":"@id","type":"@type"}}`

// PreloadVocab preloads VocabContext under each url. Embedded contexts keep
// their own definitions.
func (c *ContextCache) PreloadVocab(urls ...string) error {
	for _, url := range urls {
		if _, embedded := embeddedContexts[url]; embedded {
			continue
		}
		if err := c.Preload(url, []byte(VocabContext)); err != nil {
			return err
		}
	}
	return nil
}
