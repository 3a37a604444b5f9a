package collection

import "context"

// DedupService is the duplicate gate the persister consults before a
// record is accepted. The returned hash is empty on a URL-gate hit.
type DedupService interface {
	IsDuplicate(ctx context.Context, url, title, source, content, summary string) (bool, string, error)
}

// ManagerInterface is what the runner and the API trigger surface need
// from the collection manager.
type ManagerInterface interface {
	CollectFrom(ctx context.Context, source string) (*Result, error)
	Sources() []string
}
