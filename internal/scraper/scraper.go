package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mangacover/internal/mangadex"
	"mangacover/internal/sync"
	"mangacover/pkg/models"
)

const DefaultPopularLimit = 10

// Source is implemented by the upstream client.
type Source interface {
	FetchRandom(ctx context.Context) (mangadex.Manga, error)
	FetchByID(ctx context.Context, id string) (mangadex.Manga, error)
	FetchPopular(ctx context.Context, limit int) ([]mangadex.RawManga, error)
}

// Store is implemented by manga.Repo.
type Store interface {
	Upsert(ctx context.Context, n models.NormalizedManga) (models.SaveResult, error)
	ListAll(ctx context.Context) ([]models.MangaRecord, error)
}

// Publisher receives an event for every saved record. Optional.
type Publisher interface {
	Publish(ev sync.MangaEvent)
}

const (
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StageNormalize = "normalize"
	StageStore     = "store"
)

// StageError names the pipeline stage that failed. It unwraps to the cause.
type StageError struct {
	Stage      string
	ProviderID string
	Err        error
}

func (e *StageError) Error() string {
	if e.ProviderID != "" {
		return fmt.Sprintf("%s manga %s: %v", e.Stage, e.ProviderID, e.Err)
	}
	return fmt.Sprintf("%s manga: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Failure is one batch item that could not be saved.
type Failure struct {
	ProviderID string `json:"providerId"`
	Cause      string `json:"cause"`
	Err        error  `json:"-"`
}

type BatchResult struct {
	Results  []models.SaveResult `json:"results"`
	Failures []Failure           `json:"failures"`
}

// Pipeline fetches provider records, normalizes them and persists them.
// It holds no per-request state.
type Pipeline struct {
	Source     Source
	Normalizer mangadex.Normalizer
	Store      Store
	Events     Publisher
}

func NewPipeline(src Source, n mangadex.Normalizer, store Store, events Publisher) *Pipeline {
	return &Pipeline{Source: src, Normalizer: n, Store: store, Events: events}
}

func (p *Pipeline) FetchAndSaveRandom(ctx context.Context) (models.SaveResult, error) {
	m, err := p.Source.FetchRandom(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[scraper] fetch random manga failed")
		return models.SaveResult{}, &StageError{Stage: StageFetch, Err: err}
	}
	return p.save(ctx, m)
}

func (p *Pipeline) FetchAndSaveByID(ctx context.Context, providerID string) (models.SaveResult, error) {
	m, err := p.Source.FetchByID(ctx, providerID)
	if err != nil {
		log.Error().Err(err).Str("provider_id", providerID).Msg("[scraper] fetch manga failed")
		return models.SaveResult{}, &StageError{Stage: StageFetch, ProviderID: providerID, Err: err}
	}
	return p.save(ctx, m)
}

// FetchAndSavePopular saves up to limit popular manga. Items are decoded and
// processed in upstream order; a failing item is recorded in Failures and the
// rest of the batch continues. Only a failure to fetch the list itself is returned.
func (p *Pipeline) FetchAndSavePopular(ctx context.Context, limit int) (BatchResult, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	list, err := p.Source.FetchPopular(ctx, limit)
	if err != nil {
		log.Error().Err(err).Int("limit", limit).Msg("[scraper] fetch popular manga failed")
		return BatchResult{}, &StageError{Stage: StageFetch, Err: err}
	}

	out := BatchResult{
		Results:  make([]models.SaveResult, 0, len(list)),
		Failures: make([]Failure, 0),
	}
	for _, raw := range list {
		m, err := raw.Decode()
		if err != nil {
			log.Warn().Err(err).Str("provider_id", raw.ID()).Msg("[scraper] decode manga failed")
			out.addFailure(raw.ID(), &StageError{Stage: StageDecode, ProviderID: raw.ID(), Err: err})
			continue
		}
		res, err := p.save(ctx, m)
		if err != nil {
			out.addFailure(m.ID, err)
			continue
		}
		out.Results = append(out.Results, res)
	}

	log.Info().
		Int("limit", limit).
		Int("saved", len(out.Results)).
		Int("failed", len(out.Failures)).
		Msg("[scraper] popular batch finished")
	return out, nil
}

func (b *BatchResult) addFailure(providerID string, err error) {
	b.Failures = append(b.Failures, Failure{ProviderID: providerID, Cause: err.Error(), Err: err})
}

func (p *Pipeline) ListAll(ctx context.Context) ([]models.MangaRecord, error) {
	items, err := p.Store.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[scraper] list stored manga failed")
		return nil, err
	}
	return items, nil
}

// save runs normalize then upsert. The store is not touched if normalization fails.
func (p *Pipeline) save(ctx context.Context, m mangadex.Manga) (models.SaveResult, error) {
	n, err := p.Normalizer.Normalize(m)
	if err != nil {
		log.Warn().Err(err).Str("provider_id", m.ID).Msg("[scraper] normalize manga failed")
		return models.SaveResult{}, &StageError{Stage: StageNormalize, ProviderID: m.ID, Err: err}
	}

	res, err := p.Store.Upsert(ctx, n)
	if err != nil {
		log.Error().Err(err).Str("provider_id", n.ProviderID).Msg("[scraper] save manga failed")
		return models.SaveResult{}, &StageError{Stage: StageStore, ProviderID: n.ProviderID, Err: err}
	}

	evType := sync.EventMangaUpdated
	if res.Created {
		evType = sync.EventMangaCreated
		log.Info().Str("title", res.Title).Str("provider_id", res.ProviderID).Msg("[scraper] saved new manga")
	} else {
		log.Info().Str("title", res.Title).Str("provider_id", res.ProviderID).Msg("[scraper] updated manga")
	}
	if p.Events != nil {
		p.Events.Publish(sync.MangaEvent{
			Type:       evType,
			ProviderID: res.ProviderID,
			Title:      res.Title,
			At:         time.Now().UTC(),
		})
	}
	return res, nil
}

// IsStage reports whether err failed in the given stage.
func IsStage(err error, stage string) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
