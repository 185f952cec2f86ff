package mangadex

import (
	"encoding/json"
	"testing"
)

func TestLocalizedTextKeepsDocumentOrder(t *testing.T) {
	var l LocalizedText
	if err := json.Unmarshal([]byte(`{"zh": "测试", "ko": "시험", "de": null, "fr": "Essai"}`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"zh", "ko", "fr"}
	if len(l) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(l), len(want), l)
	}
	for i, locale := range want {
		if l[i].Locale != locale {
			t.Fatalf("entry %d = %q, want %q", i, l[i].Locale, locale)
		}
	}

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"zh":"测试","ko":"시험","fr":"Essai"}` {
		t.Fatalf("marshal = %s", b)
	}
}

func TestLocalizedTextRejectsScalar(t *testing.T) {
	var l LocalizedText
	if err := json.Unmarshal([]byte(`"Test"`), &l); err == nil {
		t.Fatal("expected error for scalar title")
	}
}
