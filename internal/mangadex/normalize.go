package mangadex

import (
	"fmt"
	"strings"

	"mangacover/internal/apperr"
	"mangacover/pkg/models"
)

const (
	UnknownTitle  = "Unknown Title"
	DefaultStatus = "ongoing"
)

type CoverSize string

const (
	CoverOriginal CoverSize = "original"
	Cover256      CoverSize = "256"
	Cover512      CoverSize = "512"
)

// ParseCoverSize maps a query value to a CoverSize. Empty means original.
func ParseCoverSize(s string) (CoverSize, error) {
	switch CoverSize(strings.TrimSpace(s)) {
	case "", CoverOriginal:
		return CoverOriginal, nil
	case Cover256:
		return Cover256, nil
	case Cover512:
		return Cover512, nil
	default:
		return "", fmt.Errorf("size must be one of original, 256, 512, got %q: %w", s, apperr.ErrInvalidArgument)
	}
}

func (s CoverSize) Suffix() string {
	switch s {
	case Cover256:
		return ".256.jpg"
	case Cover512:
		return ".512.jpg"
	default:
		return ""
	}
}

// Normalizer maps provider records into models.NormalizedManga. It holds no
// state besides the uploads host used to build cover URLs.
type Normalizer struct {
	UploadsBase string
}

func NewNormalizer(uploadsBase string) Normalizer {
	return Normalizer{UploadsBase: strings.TrimRight(uploadsBase, "/")}
}

// Normalize fails only for a record without an id.
func (n Normalizer) Normalize(m Manga) (models.NormalizedManga, error) {
	if strings.TrimSpace(m.ID) == "" {
		return models.NormalizedManga{}, fmt.Errorf("manga record without id: %w", apperr.ErrInvalidUpstreamResponse)
	}

	out := models.NormalizedManga{
		ProviderID: m.ID,
		Title:      ResolveTitle(m.Attributes.Title),
		Status:     DefaultStatus,
	}
	if s := strings.TrimSpace(m.Attributes.Status); s != "" {
		out.Status = s
	}
	if u, ok := n.CoverURL(m, CoverOriginal); ok {
		out.CoverURL = &u
	}
	return out, nil
}

// CoverURL builds {uploads}/covers/{id}/{fileName}{suffix}.
func (n Normalizer) CoverURL(m Manga, size CoverSize) (string, bool) {
	fileName, ok := m.CoverFileName()
	if !ok || m.ID == "" {
		return "", false
	}
	return fmt.Sprintf("%s/covers/%s/%s%s", strings.TrimRight(n.UploadsBase, "/"), m.ID, fileName, size.Suffix()), true
}

// ResolveTitle picks en, then ja, then the first non-empty locale.
func ResolveTitle(titles LocalizedText) string {
	for _, lang := range []string{"en", "ja"} {
		if v, ok := titles.Get(lang); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	for _, e := range titles {
		if strings.TrimSpace(e.Value) != "" {
			return e.Value
		}
	}
	return UnknownTitle
}
