// Package resolver decides, per listing entry, whether a download is needed
// and where its image lives.
package resolver

import (
	"path/filepath"
	"strings"

	"gfmapdl/pkg/classify"
	"gfmapdl/pkg/models"
)

// Prober reports the size of a regular file, or false if none exists at path
type Prober interface {
	Size(path string) (int64, bool)
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(path string) (int64, bool)

// Size calls f(path)
func (f ProberFunc) Size(path string) (int64, bool) {
	return f(path)
}

// Decision is either Proceed or Skip
type Decision interface {
	decision()
}

// Proceed means the entry should be downloaded from ImageURL and stored
// under Target plus the extension found by classification.
type Proceed struct {
	Target   string
	ImageURL string
}

// Skip means a non-empty earlier download already exists at Existing
type Skip struct {
	Existing string
}

func (Proceed) decision() {}
func (Skip) decision()    {}

// ImageURL turns a map page URL into the raw image URL by dropping the
// slug after the first hyphen of the last path segment and asking for the raw bytes:
//
//	.../map/761-world-map  ->  .../map/761?raw=1
func ImageURL(listingURL string) string {
	prefix, segment := "", listingURL
	if i := strings.LastIndex(listingURL, "/"); i >= 0 {
		prefix, segment = listingURL[:i+1], listingURL[i+1:]
	}
	head, _, _ := strings.Cut(segment, "-")
	return prefix + head + "?raw=1"
}

// Resolve computes the target path for entry and probes it with every
// extension in exts. The first candidate with a non-empty file yields Skip;
// empty files are ignored. With overwrite set no probing happens.
func Resolve(entry models.Entry, saveDir string, exts []classify.Extension, overwrite bool, probe Prober) Decision {
	target := filepath.Join(saveDir, entry.Name)

	if !overwrite && probe != nil {
		for _, ext := range exts {
			candidate := target + string(ext)
			if size, ok := probe.Size(candidate); ok && size > 0 {
				return Skip{Existing: candidate}
			}
		}
	}

	return Proceed{Target: target, ImageURL: ImageURL(entry.URL)}
}
