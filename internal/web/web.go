package web

import "context"

// Result is one search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Searcher is the lookup capability the interpreter drives.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Grokipedia is the preferred knowledge source. The public API is not
// available yet, so the client answers empty and the interpreter falls
// through to the web engine.
type Grokipedia struct{}

func (Grokipedia) Search(_ context.Context, _ string) ([]Result, error) {
	return nil, nil
}
