package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avvvet/qrcard-services/internal/cardsvc/handlers"
	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/avvvet/qrcard-services/internal/cardsvc/render"
	"github.com/avvvet/qrcard-services/internal/cardsvc/service"
	"github.com/avvvet/qrcard-services/internal/cardsvc/store"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"
)

type stubEncoder struct{ err error }

func (s stubEncoder) Encode(text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("\x89PNG" + text), nil
}

// failingStore reports every read as a storage fault.
type failingStore struct{ store.CardStore }

func (failingStore) Exists(ctx context.Context, code string) (bool, error) {
	return false, errors.New("disk on fire")
}

func (failingStore) Get(ctx context.Context, code string) (*models.Card, error) {
	return nil, errors.New("disk on fire")
}

func newRouter(t *testing.T, enc render.QREncoder, baseURL string) *chi.Mux {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "card_info.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	return newRouterWithStore(t, s, enc, baseURL)
}

func newRouterWithStore(t *testing.T, s store.CardStore, enc render.QREncoder, baseURL string) *chi.Mux {
	t.Helper()
	renderer, err := render.New(enc)
	require.NoError(t, err)

	r := chi.NewRouter()
	handlers.NewHandler(service.NewCardService(s), renderer, baseURL).SetRoutes(r)
	return r
}

func submitForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSubmitAndView(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "http://cards.test")

	w := submitForm(r, url.Values{
		"name":  {"Ada"},
		"email": {"ada@x.com"},
		"phone": {"123"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	location := w.Header().Get("Location")
	require.Regexp(t, `^/card/[0-9a-f]{8}$`, location)

	w = get(r, location)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	require.Contains(t, body, "<h1>Ada</h1>")
	require.Contains(t, body, "data:image/png;base64,")
	require.Contains(t, body, "http://cards.test"+location)
	require.NotContains(t, body, "GitHub:")
	require.NotContains(t, body, "LinkedIn:")
}

func TestSubmitDuplicateCode(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := submitForm(r, url.Values{"name": {"First"}, "email": {"a@x.com"}, "code": {"mycard"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/card/mycard", w.Header().Get("Location"))

	w = submitForm(r, url.Values{"name": {"Second"}, "email": {"b@x.com"}, "code": {"mycard"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Custom code already exists")
	require.Contains(t, w.Body.String(), `value="Second"`)

	w = get(r, "/card/mycard")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<h1>First</h1>")
}

func TestSubmitInvalid(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := submitForm(r, url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "code": {"../etc"}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = submitForm(r, url.Values{"email": {"a@x.com"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), service.ErrInvalidCard.Error())
}

func TestCardNotFound(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := get(r, "/card/doesnotexist")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Card not found")

	w = get(r, "/card/doesnotexist/qr.png")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardRenderFailure(t *testing.T) {
	r := newRouter(t, stubEncoder{err: errors.New("encoder exploded")}, "")

	w := submitForm(r, url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "code": {"ada"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = get(r, "/card/ada")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "encoder exploded")
}

func TestStoreFailureIsInternalError(t *testing.T) {
	r := newRouterWithStore(t, failingStore{}, stubEncoder{}, "")

	for _, path := range []string{"/card/ada", "/card/ada/qr.png", "/v1/cards/ada"} {
		w := get(r, path)
		require.Equal(t, http.StatusInternalServerError, w.Code, path)
		require.Contains(t, strings.ToLower(w.Body.String()), "internal server error", path)
		require.NotContains(t, w.Body.String(), "disk on fire", path)
	}

	w := submitForm(r, url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "code": {"ada"}})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "disk on fire")
}

func TestQRDownload(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := submitForm(r, url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "code": {"ada"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/card/ada/qr.png", nil)
	req.Host = "example.org"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="ada.png"`)
	require.Equal(t, "\x89PNGhttp://example.org/card/ada", w.Body.String())
}

func TestBaseURLOverridesRequestHost(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "https://cards.test/")

	w := submitForm(r, url.Values{"name": {"Ada"}, "email": {"a@x.com"}, "code": {"ada"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/card/ada/qr.png", nil)
	req.Host = "evil.example"
	req.Header.Set("X-Forwarded-Proto", "http")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "\x89PNGhttps://cards.test/card/ada", w.Body.String())
}

func TestIndexAlert(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := get(r, "/?error=Custom+code+already+exists")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Custom code already exists")

	w = get(r, "/?error=%3Cb%3Ex%3C%2Fb%3E")
	require.NotContains(t, w.Body.String(), "<b>x</b>")
}

func TestJSONAPI(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "https://cards.test")

	create := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/cards", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := create(`{"name":"Ada","email":"ada@x.com","github":"https://github.com/ada","code":"ada"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "https://cards.test/card/ada", w.Header().Get("Location"))

	var created struct {
		Code int                  `json:"code"`
		Data handlers.CreatedCard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, http.StatusCreated, created.Code)
	require.Equal(t, "ada", created.Data.Code)

	w = create(`{"name":"Bob","email":"bob@x.com","code":"ada"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = create(`{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = get(r, "/v1/cards/ada")
	require.Equal(t, http.StatusOK, w.Code)
	var found struct {
		Data models.Card `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Equal(t, "Ada", found.Data.Name)
	require.Equal(t, "https://github.com/ada", found.Data.Github)

	w = get(r, "/v1/cards/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r := newRouter(t, stubEncoder{}, "")

	w := get(r, "/v1/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "card service is running")
}
