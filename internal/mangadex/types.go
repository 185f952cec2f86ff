package mangadex

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mangacover/internal/apperr"
)

const relCoverArt = "cover_art"

// LocaleText is one entry of a localized string map.
type LocaleText struct {
	Locale string
	Value  string
}

// LocalizedText is a locale→string map that keeps the order the provider sent
// it in, so "first available locale" is deterministic.
type LocalizedText []LocaleText

// Get returns the value for locale and whether it was present.
func (l LocalizedText) Get(locale string) (string, bool) {
	for _, e := range l {
		if e.Locale == locale {
			return e.Value, true
		}
	}
	return "", false
}

func (l *LocalizedText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	// MangaDex serializes an empty map as [].
	if bytes.Equal(b, []byte("[]")) {
		*l = LocalizedText{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("localized text: expected object, got %v", tok)
	}

	out := LocalizedText{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value *string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("localized text %q: %w", key, err)
		}
		if value != nil {
			out = append(out, LocaleText{Locale: key, Value: *value})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l LocalizedText) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Locale)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Attributes struct {
	Title  LocalizedText `json:"title"`
	Status string        `json:"status,omitempty"`
}

type RelationshipAttributes struct {
	FileName string `json:"fileName,omitempty"`
}

type Relationship struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Attributes *RelationshipAttributes `json:"attributes,omitempty"`
}

// Manga is one provider record as returned by the MangaDex API.
type Manga struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Attributes    Attributes     `json:"attributes"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// CoverFileName returns the file name of the first cover_art relationship.
func (m Manga) CoverFileName() (string, bool) {
	for _, rel := range m.Relationships {
		if rel.Type != relCoverArt {
			continue
		}
		if rel.Attributes == nil || rel.Attributes.FileName == "" {
			return "", false
		}
		return rel.Attributes.FileName, true
	}
	return "", false
}

type entityResponse struct {
	Result   string `json:"result"`
	Response string `json:"response"`
	Data     Manga  `json:"data"`
}

// RawManga is one undecoded item of a collection response. Items are decoded
// one at a time so a malformed record only fails itself.
type RawManga json.RawMessage

// ID returns the record id, or "" if the item is not an object with a string id.
func (r RawManga) ID() string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r, &head); err != nil {
		return ""
	}
	return head.ID
}

// Decode parses the item into a Manga.
func (r RawManga) Decode() (Manga, error) {
	var m Manga
	if err := json.Unmarshal(r, &m); err != nil {
		return Manga{}, fmt.Errorf("decode manga %s: %v: %w", r.ID(), err, apperr.ErrInvalidUpstreamResponse)
	}
	return m, nil
}

type collectionResponse struct {
	Result   string            `json:"result"`
	Response string            `json:"response"`
	Data     []json.RawMessage `json:"data"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Total    int               `json:"total"`
}
