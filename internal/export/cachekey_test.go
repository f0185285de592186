package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeriver_Format(t *testing.T) {
	d := NewKeyDeriver("")

	key := d.Derive(KindLocale, "en", map[string]interface{}{"format": "flat"})

	parts := strings.Split(key, ".")
	assert.Equal(t, "translations", parts[0])
	assert.Equal(t, "export", parts[1])
	assert.Equal(t, "locale", parts[2])
	assert.Equal(t, "en", parts[3])
	assert.Len(t, parts[4], 32)
	assert.Equal(t, "translations.export.stats", d.Fixed(KindStats))
}

func TestKeyDeriver_OrderIndependent(t *testing.T) {
	d := NewKeyDeriver("translations.export")

	p1 := map[string]interface{}{}
	p1["format"] = "nested"
	p1["include_metadata"] = true
	p1["tags"] = []string{"mobile", "web"}

	p2 := map[string]interface{}{}
	p2["tags"] = []string{"mobile", "web"}
	p2["include_metadata"] = true
	p2["format"] = "nested"

	assert.Equal(t, d.Derive(KindAll, "all", p1), d.Derive(KindAll, "all", p2))
}

func TestKeyDeriver_NormalizedRequestsCollide(t *testing.T) {
	d := NewKeyDeriver("")

	a := LocaleRequest{Locale: "EN", Tags: []string{"web", "Mobile", "web"}}.Normalize()
	b := LocaleRequest{Locale: "en", Tags: []string{"mobile", "web"}, Format: FormatFlat}.Normalize()

	assert.Equal(t, d.Derive(KindLocale, a.Locale, a.Params()), d.Derive(KindLocale, b.Locale, b.Params()))
}

func TestKeyDeriver_DistinctInputs(t *testing.T) {
	d := NewKeyDeriver("")
	base := map[string]interface{}{"format": "flat", "include_metadata": false, "tags": []string{}}

	seen := map[string]string{}
	record := func(name, key string) {
		if prev, ok := seen[key]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}
		seen[key] = name
	}

	record("base", d.Derive(KindLocale, "en", base))
	record("other kind", d.Derive(KindTag, "en", base))
	record("other identifier", d.Derive(KindLocale, "fr", base))
	record("other format", d.Derive(KindLocale, "en", map[string]interface{}{"format": "nested", "include_metadata": false, "tags": []string{}}))
	record("metadata", d.Derive(KindLocale, "en", map[string]interface{}{"format": "flat", "include_metadata": true, "tags": []string{}}))
	record("tags", d.Derive(KindLocale, "en", map[string]interface{}{"format": "flat", "include_metadata": false, "tags": []string{"web"}}))
	record("namespace", NewKeyDeriver("other").Derive(KindLocale, "en", base))
}

func TestHash_NilEqualsEmpty(t *testing.T) {
	assert.Equal(t, Hash(nil), Hash(map[string]interface{}{}))
}
