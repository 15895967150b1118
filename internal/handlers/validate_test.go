package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStruct_FieldPaths(t *testing.T) {
	req := gameRequest{
		Title:       requiredText{TR: "Araba"},
		InstantLink: "not a url",
		CategoryIDs: []uuid.UUID{uuid.Nil},
	}
	err := checkStruct(&req)
	require.Error(t, err)

	re, ok := err.(*requestError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, "validation failed", re.msg)
	assert.Equal(t, "required", re.fields["title.en"])
	assert.Equal(t, "url", re.fields["instantLink"])
	assert.Equal(t, "required", re.fields["categories[0]"])
	assert.NotContains(t, re.fields, "title.tr")
}

func TestCheckStruct_KeywordLimits(t *testing.T) {
	long := make([]byte, 51)
	for i := range long {
		long[i] = 'k'
	}
	req := categoryPatchRequest{Keywords: keywordsInput{TR: []string{"ok", string(long)}}}
	err := checkStruct(&req)
	require.Error(t, err)
	assert.Equal(t, "max", err.(*requestError).fields["keywords.tr[1]"])
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "name.tr", fieldPath("categoryRequest.name.tr"))
	assert.Equal(t, "gameOrders[2].order", fieldPath("orderRequest.gameOrders[2].order"))
	assert.Equal(t, "plain", fieldPath("plain"))
}

func TestFormKeywords(t *testing.T) {
	f := form(url.Values{
		"keywords.tr": {`["araba", "hız"]`},
		"keywords.en": {"car, speed ,", "race"},
	})
	k, err := f.keywords("keywords")
	require.NoError(t, err)
	assert.Equal(t, []string{"araba", "hız"}, k.TR)
	assert.Equal(t, []string{"car", "speed", "race"}, k.EN)

	k, err = form(url.Values{}).keywords("keywords")
	require.NoError(t, err)
	assert.Nil(t, k.TR, "absent field must stay nil so updates keep the old value")

	_, err = form(url.Values{"keywords.tr": {`["broken`}}).keywords("keywords")
	assert.Error(t, err)
}

func TestFormIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	ids, err := form(url.Values{
		"categories":   {`["` + a.String() + `"]`},
		"categories[]": {b.String(), c.String()},
	}).ids("categories")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b, c}, ids)

	ids, err = form(url.Values{"categories": {a.String() + "," + b.String()}}).ids("categories")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	ids, err = form(url.Values{}).ids("categories")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = form(url.Values{"categories": {"nope"}}).ids("categories")
	assert.Error(t, err)
}

func TestFormFlagsAndID(t *testing.T) {
	var active, popular *bool
	err := form(url.Values{"isActive": {"false"}}).flags(map[string]**bool{
		"isActive":  &active,
		"isPopular": &popular,
	})
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)
	assert.Nil(t, popular)

	err = form(url.Values{"isActive": {"yes please"}}).flags(map[string]**bool{"isActive": &active})
	assert.Error(t, err)

	id, err := form(url.Values{"parentId": {"null"}}).id("parentId")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = form(url.Values{"parentId": {"x"}}).id("parentId")
	assert.Error(t, err)
}

func TestLocaleOf(t *testing.T) {
	assert.Equal(t, "tr", string(localeOf(httptest.NewRequest(http.MethodGet, "/", nil))))
	assert.Equal(t, "en", string(localeOf(httptest.NewRequest(http.MethodGet, "/?lang=en", nil))))
	assert.Equal(t, "tr", string(localeOf(httptest.NewRequest(http.MethodGet, "/?lang=xx-nope", nil))))
}
