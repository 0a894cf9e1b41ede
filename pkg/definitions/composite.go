package definitions

import (
	"context"

	"github.com/pkg/errors"

	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
)

// CompositeLabel is the label of a composite source. Configured sources may not use it.
const CompositeLabel = "all"

// Composite fans queries out to an ordered list of sources
type Composite struct {
	sources []Source
}

var _ Source = (*Composite)(nil)

// NewComposite creates a composite over the given sources, queried in order
func NewComposite(sources ...Source) *Composite {
	return &Composite{sources: sources}
}

// Label returns CompositeLabel
func (c *Composite) Label() string { return CompositeLabel }

// Sources returns the member sources in query order
func (c *Composite) Sources() []Source { return c.sources }

// List concatenates every member's listing. Any member error aborts the call.
func (c *Composite) List(ctx context.Context) ([]types.Summary, error) {
	all := []types.Summary{}
	for _, source := range c.sources {
		summaries, err := source.List(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", source.Label())
		}
		all = append(all, summaries...)
	}
	return all, nil
}

// Search concatenates every member's search results
func (c *Composite) Search(ctx context.Context, query string) ([]types.Summary, error) {
	all := []types.Summary{}
	for _, source := range c.sources {
		summaries, err := source.Search(ctx, query)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to search %s", source.Label())
		}
		all = append(all, summaries...)
	}
	return all, nil
}

// Fetch returns the first member hit. Not-found members are skipped; any other
// error is returned immediately.
func (c *Composite) Fetch(ctx context.Context, id types.ID) (*types.Definition, error) {
	for _, source := range c.sources {
		def, err := source.Fetch(ctx, id)
		if err == nil {
			return def, nil
		}
		if !types.IsNotFound(err) {
			return nil, errors.Wrapf(err, "failed to fetch from %s", source.Label())
		}
	}
	return nil, &types.NotFoundError{ID: id}
}
