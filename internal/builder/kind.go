package builder

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"preview-generator/internal/cachepath"
)

// Kind is a preview variant.
type Kind string

const (
	KindJPEG Kind = "jpeg"
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindJSON Kind = "json"
	KindText Kind = "text"
)

// AllPages requests the whole document from a PDF preview.
const AllPages = cachepath.NoPage

var allKinds = []Kind{KindJPEG, KindPDF, KindHTML, KindJSON, KindText}

// AllKinds returns every preview kind in a fixed order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind accepts a kind name or one of the usual aliases ("jpg", "txt").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return KindJPEG, nil
	case "pdf":
		return KindPDF, nil
	case "html", "htm":
		return KindHTML, nil
	case "json":
		return KindJSON, nil
	case "text", "txt":
		return KindText, nil
	}
	return "", fmt.Errorf("unknown preview kind %q", s)
}

// ParseKinds parses kind names, each of which may be a comma-separated
// list. Duplicates are dropped; no names yields AllKinds.
func ParseKinds(names []string) ([]Kind, error) {
	var kinds []Kind
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := ParseKind(part)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return AllKinds(), nil
	}
	return lo.Uniq(kinds), nil
}

// Extension returns the artifact file extension for the kind.
func (k Kind) Extension() string {
	switch k {
	case KindJPEG:
		return cachepath.ExtJPEG
	case KindPDF:
		return cachepath.ExtPDF
	case KindHTML:
		return cachepath.ExtHTML
	case KindJSON:
		return cachepath.ExtJSON
	case KindText:
		return cachepath.ExtText
	}
	return ""
}

// Paged reports whether previews of this kind are tied to a page index.
func (k Kind) Paged() bool {
	return k == KindJPEG || k == KindPDF
}

func (k Kind) bit() Capabilities {
	for i, kind := range allKinds {
		if kind == k {
			return 1 << i
		}
	}
	return 0
}

// Capabilities is the set of kinds a builder can produce.
type Capabilities uint8

// NewCapabilities returns the set holding kinds.
func NewCapabilities(kinds ...Kind) Capabilities {
	var c Capabilities
	for _, k := range kinds {
		c |= k.bit()
	}
	return c
}

// Has reports whether k is in the set.
func (c Capabilities) Has(k Kind) bool {
	bit := k.bit()
	return bit != 0 && c&bit != 0
}

// With returns the union of c and kinds.
func (c Capabilities) With(kinds ...Kind) Capabilities {
	return c | NewCapabilities(kinds...)
}

// Kinds lists the set members in AllKinds order.
func (c Capabilities) Kinds() []Kind {
	var out []Kind
	for _, k := range allKinds {
		if c.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (c Capabilities) String() string {
	kinds := c.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return "{" + strings.Join(names, ",") + "}"
}
