package definition

import "strings"

// Redirect maps one literal identifier token to its replacement. Tokens are
// matched case-sensitively with no normalization; keys are typically GUIDs
// serialized as text or full SQL connection strings.
type Redirect struct {
	Old string
	New string
}

// Redirects is the identifier redirect map accumulated while cloning a set
// of related items (source lakehouse ID -> target lakehouse ID, source SQL
// endpoint -> target SQL endpoint, ...). Entries are ordered; Apply matches
// all of them in a single pass, so the output of one replacement is never
// re-matched by a later entry.
type Redirects []Redirect

// Add appends a redirect pair.
func (r *Redirects) Add(old, new string) {
	*r = append(*r, Redirect{Old: old, New: new})
}

// Apply substitutes every occurrence of each Old token with its New token
// in one synchronized traversal (non-overlapping, leftmost match wins).
func (r Redirects) Apply(text string) string {
	if len(r) == 0 {
		return text
	}
	pairs := make([]string, 0, len(r)*2)
	for _, redirect := range r {
		pairs = append(pairs, redirect.Old, redirect.New)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// RewritePart decodes the part at path, applies the redirect map to its
// text, and returns a definition with the rewritten part swapped in. The
// part keeps its path and comes back InlineBase64-encoded.
func RewritePart(d Definition, path string, redirects Redirects) (Definition, error) {
	part, err := d.FindPart(path)
	if err != nil {
		return Definition{}, err
	}

	content, err := part.Decode()
	if err != nil {
		return Definition{}, err
	}

	rewritten := redirects.Apply(string(content))
	return d.ReplacePart(path, NewInlineBase64Part(path, []byte(rewritten)))
}
