package manga

import (
	"context"
	"fmt"
	"strings"

	"mangacover/internal/apperr"
	"mangacover/internal/mangadex"
)

// RandomSource is the slice of the upstream client the cover flow needs.
type RandomSource interface {
	FetchRandom(ctx context.Context) (mangadex.Manga, error)
}

type CoverResult struct {
	MangaID  string             `json:"mangaId"`
	CoverURL string             `json:"coverUrl"`
	Size     mangadex.CoverSize `json:"size"`
}

// CoverService resolves the cover of a random manga without persisting it.
type CoverService struct {
	Source     RandomSource
	Normalizer mangadex.Normalizer
}

func NewCoverService(src RandomSource, n mangadex.Normalizer) *CoverService {
	return &CoverService{Source: src, Normalizer: n}
}

func (s *CoverService) GetRandomCover(ctx context.Context, size mangadex.CoverSize) (CoverResult, error) {
	if size == "" {
		size = mangadex.CoverOriginal
	}

	m, err := s.Source.FetchRandom(ctx)
	if err != nil {
		return CoverResult{}, fmt.Errorf("random cover: %w", err)
	}
	if strings.TrimSpace(m.ID) == "" {
		return CoverResult{}, fmt.Errorf("random cover: record without id: %w", apperr.ErrInvalidUpstreamResponse)
	}

	coverURL, ok := s.Normalizer.CoverURL(m, size)
	if !ok {
		return CoverResult{}, fmt.Errorf("random cover: manga %s: %w", m.ID, apperr.ErrCoverNotFound)
	}
	return CoverResult{MangaID: m.ID, CoverURL: coverURL, Size: size}, nil
}
