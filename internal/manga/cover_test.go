package manga

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mangacover/internal/apperr"
	"mangacover/internal/mangadex"
)

type fakeRandomSource struct {
	manga mangadex.Manga
	err   error
	calls int
}

func (f *fakeRandomSource) FetchRandom(ctx context.Context) (mangadex.Manga, error) {
	f.calls++
	return f.manga, f.err
}

func coveredManga(id, fileName string) mangadex.Manga {
	m := mangadex.Manga{ID: id, Type: "manga"}
	m.Attributes.Title = mangadex.LocalizedText{{Locale: "en", Value: "Test"}}
	if fileName != "" {
		m.Relationships = []mangadex.Relationship{
			{ID: "a1", Type: "author"},
			{ID: "c1", Type: "cover_art", Attributes: &mangadex.RelationshipAttributes{FileName: fileName}},
		}
	}
	return m
}

func newCoverService(src RandomSource) *CoverService {
	return NewCoverService(src, mangadex.NewNormalizer("https://uploads.mangadex.org"))
}

func TestGetRandomCoverSizes(t *testing.T) {
	svc := newCoverService(&fakeRandomSource{manga: coveredManga("abc", "x.jpg")})

	res, err := svc.GetRandomCover(context.Background(), mangadex.Cover256)
	if err != nil {
		t.Fatalf("GetRandomCover(256): %v", err)
	}
	if !strings.HasSuffix(res.CoverURL, ".256.jpg") {
		t.Fatalf("256 cover url = %q", res.CoverURL)
	}
	if res.MangaID != "abc" || res.Size != mangadex.Cover256 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = svc.GetRandomCover(context.Background(), mangadex.CoverOriginal)
	if err != nil {
		t.Fatalf("GetRandomCover(original): %v", err)
	}
	if res.CoverURL != "https://uploads.mangadex.org/covers/abc/x.jpg" {
		t.Fatalf("original cover url = %q", res.CoverURL)
	}
}

func TestGetRandomCoverErrors(t *testing.T) {
	upstreamErr := &mangadex.TransportError{Op: "random", StatusCode: http.StatusBadGateway}
	cases := []struct {
		name string
		src  *fakeRandomSource
		want error
	}{
		{"upstream failure", &fakeRandomSource{err: upstreamErr}, apperr.ErrUpstream},
		{"missing id", &fakeRandomSource{manga: coveredManga("", "x.jpg")}, apperr.ErrInvalidUpstreamResponse},
		{"missing cover", &fakeRandomSource{manga: coveredManga("abc", "")}, apperr.ErrCoverNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newCoverService(tc.src).GetRandomCover(context.Background(), mangadex.Cover512)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func newCoverRouter(src RandomSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(nil, newCoverService(src)).RegisterRoutes(r.Group("/manga"))
	return r
}

func TestRandomCoverEndpoint(t *testing.T) {
	r := newCoverRouter(&fakeRandomSource{manga: coveredManga("abc", "x.jpg")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manga/random-cover?size=512", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var body CoverResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.MangaID != "abc" || body.Size != "512" || !strings.HasSuffix(body.CoverURL, "/covers/abc/x.jpg.512.jpg") {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRandomCoverRedirect(t *testing.T) {
	r := newCoverRouter(&fakeRandomSource{manga: coveredManga("abc", "x.jpg")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manga/random-cover.jpg", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://uploads.mangadex.org/covers/abc/x.jpg" {
		t.Fatalf("Location = %q", loc)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("Cache-Control = %q", cc)
	}
}

func TestRandomCoverStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		src  *fakeRandomSource
		url  string
		want int
	}{
		{"upstream down", &fakeRandomSource{err: &mangadex.TransportError{Op: "random", Err: errors.New("dial tcp: refused")}}, "/manga/random-cover", http.StatusBadGateway},
		{"invalid response", &fakeRandomSource{manga: coveredManga("", "x.jpg")}, "/manga/random-cover", http.StatusInternalServerError},
		{"no cover", &fakeRandomSource{manga: coveredManga("abc", "")}, "/manga/random-cover.jpg", http.StatusNotFound},
		{"bad size", &fakeRandomSource{manga: coveredManga("abc", "x.jpg")}, "/manga/random-cover?size=huge", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newCoverRouter(tc.src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestBadSizeSkipsUpstream(t *testing.T) {
	src := &fakeRandomSource{manga: coveredManga("abc", "x.jpg")}
	rec := httptest.NewRecorder()
	newCoverRouter(src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manga/random-cover?size=1", nil))
	if src.calls != 0 {
		t.Fatalf("upstream called %d times for an invalid size", src.calls)
	}
}
