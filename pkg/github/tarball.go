package github

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// TarballClient downloads whole repositories as gzipped tarballs
type TarballClient struct {
	client
}

// NewTarballClient creates a tarball client
func NewTarballClient(opts ...Option) *TarballClient {
	return &TarballClient{client: newClient(opts...)}
}

// TarballURL returns the API URL of a repository tarball at ref
func (c *TarballClient) TarballURL(owner, repo, ref string) string {
	return fmt.Sprintf("%s/repos/%s/%s/tarball/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))
}

// Fetch downloads owner/repo at ref and returns every UTF-8 regular file with
// paths relative to the repository root.
func (c *TarballClient) Fetch(ctx context.Context, owner, repo, ref string) ([]File, error) {
	var files []File
	err := c.get(ctx, c.TarballURL(owner, repo, ref), func(body io.Reader) error {
		extracted, err := ExtractTarball(body)
		if err != nil {
			return err
		}
		files = extracted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ExtractTarball reads a gzipped tar archive as produced by GitHub. The
// archive's root directory is stripped from every path. Directories, links,
// entries at the root and non-UTF-8 files are skipped.
func ExtractTarball(r io.Reader) ([]File, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, &ExtractionError{Err: errors.Wrap(err, "failed to open gzip stream")}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	files := []File{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Err: errors.Wrap(err, "failed to read tar entry")}
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		idx := strings.Index(header.Name, "/")
		if idx < 0 {
			continue
		}
		path := header.Name[idx+1:]
		if path == "" {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, &ExtractionError{Err: errors.Wrapf(err, "failed to read %s", header.Name)}
		}
		if !utf8.Valid(content) {
			continue
		}

		files = append(files, File{Path: path, Content: string(content)})
	}

	return files, nil
}
