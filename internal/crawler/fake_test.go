package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/sitecrawl/internal/model"
)

// errNotFound is returned by fakeFetcher for unknown URLs.
var errNotFound = errors.New("404 not found")

// fakeFetcher serves bodies from a map and records every requested URL.
type fakeFetcher struct {
	bodies map[string]string
	fails  map[string]error
	calls  []string
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, fails: map[string]error{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*model.Page, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.fails[url]; ok {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, errNotFound)
	}
	return &model.Page{
		URL:         url,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        body,
	}, nil
}
