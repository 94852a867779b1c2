// Package resolve synthesizes absolute asset URLs from the relative paths
// carried by catalog items.
package resolve

import (
	"strings"

	"github.com/muralproject/mural/internal/domain"
)

// Resolver implements domain.Resolver against a configured asset base URL.
// Resolution is deterministic: identical path + identical version always
// yields an identical URL.
type Resolver struct {
	baseURL string // trailing slash trimmed
	version string // cache-busting token, "" = no query
}

// New creates a resolver. version is appended as a ?v= query parameter.
func New(baseURL, version string) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

// Resolve returns the absolute URL for one asset variant of item.
//
// Pre-resolved absolute URL fields pass through verbatim (older documents
// ship those). Otherwise the matching relative path is joined onto the
// asset base. When neither exists, PathPreview resolves to nil (the item
// has no preview) and every other kind resolves to the empty string.
func (r *Resolver) Resolve(item domain.Item, kind domain.PathKind) *string {
	switch kind {
	case domain.PathFull:
		return ptr(r.resolveOne(item.URL, item.Path))
	case domain.PathThumbnail:
		return ptr(r.resolveOne(item.ThumbnailURL, item.ThumbnailPath))
	case domain.PathDownload:
		return ptr(r.resolveOne(item.DownloadURL, item.Path))
	case domain.PathPreview:
		if item.PreviewURL != nil {
			return item.PreviewURL
		}
		if item.PreviewPath == "" {
			return nil
		}
		return ptr(r.join(item.PreviewPath))
	}
	return nil
}

// ResolveItem returns a copy of item with every URL field populated.
func (r *Resolver) ResolveItem(item domain.Item) domain.Item {
	item.URL = *r.Resolve(item, domain.PathFull)
	item.ThumbnailURL = *r.Resolve(item, domain.PathThumbnail)
	item.DownloadURL = *r.Resolve(item, domain.PathDownload)
	item.PreviewURL = r.Resolve(item, domain.PathPreview)
	return item
}

// ResolveItems resolves a whole category payload in place order.
func (r *Resolver) ResolveItems(items []domain.Item) []domain.Item {
	resolved := make([]domain.Item, len(items))
	for idx, item := range items {
		resolved[idx] = r.ResolveItem(item)
	}
	return resolved
}

func (r *Resolver) resolveOne(absolute, relative string) string {
	if absolute != "" {
		return absolute
	}
	if relative == "" {
		return ""
	}
	return r.join(relative)
}

func (r *Resolver) join(path string) string {
	// Paths that already carry a scheme pass through untouched
	if strings.Contains(path, "://") {
		return path
	}
	url := r.baseURL + "/" + strings.TrimLeft(path, "/")
	if r.version != "" {
		url += "?v=" + r.version
	}
	return url
}

func ptr(s string) *string { return &s }
