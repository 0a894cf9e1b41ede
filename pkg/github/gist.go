package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/pkg/errors"
)

// GistClient fetches the files of a gist
type GistClient struct {
	client
}

// NewGistClient creates a gist client
func NewGistClient(opts ...Option) *GistClient {
	return &GistClient{client: newClient(opts...)}
}

type gistResponse struct {
	Files map[string]gistFile `json:"files"`
}

type gistFile struct {
	Filename string  `json:"filename"`
	Content  *string `json:"content"`
}

// Fetch returns every gist file that carries content, ordered by file name.
// Files without inline content, such as truncated large files, are skipped.
func (c *GistClient) Fetch(ctx context.Context, gistID string) ([]File, error) {
	endpoint := fmt.Sprintf("%s/gists/%s", c.baseURL, url.PathEscape(gistID))

	var files []File
	err := c.get(ctx, endpoint, func(body io.Reader) error {
		var gist gistResponse
		if err := json.NewDecoder(body).Decode(&gist); err != nil {
			return &ExtractionError{Err: errors.Wrap(err, "failed to parse gist JSON")}
		}

		files = make([]File, 0, len(gist.Files))
		for key, f := range gist.Files {
			if f.Content == nil {
				continue
			}
			name := f.Filename
			if name == "" {
				name = key
			}
			files = append(files, File{Path: name, Content: *f.Content})
		}
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
