package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/imagehost"
	"patient-companion-server/internal/messaging"
	"patient-companion-server/internal/metrics"
	"patient-companion-server/internal/services"
	"patient-companion-server/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFetcher struct{ failing map[string]bool }

func (f *fakeFetcher) Fetch(_ context.Context, u string) (*messaging.Media, error) {
	if f.failing[u] {
		return nil, errors.New("download failed")
	}
	return &messaging.Media{Data: []byte("image"), ContentType: "image/jpeg"}, nil
}

type fakeUploader struct{ fail bool }

func (u *fakeUploader) Upload(_ context.Context, _, _ string) (*imagehost.Asset, error) {
	if u.fail {
		return nil, errors.New("upload failed")
	}
	return &imagehost.Asset{URL: "https://res.cloudinary.com/demo/image/upload/x.jpg", PublicID: "patient-images/x"}, nil
}

type fakeSearcher struct {
	answer string
	err    error
}

func (s *fakeSearcher) Answer(context.Context, string) (string, error) {
	return s.answer, s.err
}

type testEnv struct {
	router   *gin.Engine
	store    *store.Memory
	fetcher  *fakeFetcher
	uploader *fakeUploader
	searcher *fakeSearcher
}

func newTestEnv(t *testing.T, fallback bool) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    store.NewMemory(),
		fetcher:  &fakeFetcher{failing: map[string]bool{}},
		uploader: &fakeUploader{},
		searcher: &fakeSearcher{answer: "Keep the knee elevated."},
	}

	log := zap.NewNop()
	m := metrics.NewCollector("test")
	sessions := services.NewSessionService(env.store, m, log)
	records := services.NewRecordService(env.store, m, log)
	media := services.NewMediaService(env.fetcher, env.uploader, records, m, log)
	search := services.NewSearchService(env.searcher, m, log)

	agent := NewAgentHandler(sessions, records, search, NewCallerResolver(sessions, fallback, log), log)
	msgs := NewMessagingHandler(media, log)

	r := gin.New()
	g := r.Group("/agent")
	g.POST("/init", agent.Init)
	g.POST("/update-name", agent.UpdateName)
	g.POST("/take-symptom", agent.TakeSymptom)
	g.GET("/get-symptom", agent.GetSymptom)
	g.POST("/take-temperature", agent.TakeTemperature)
	g.GET("/get-temperature", agent.GetTemperature)
	g.GET("/get-all-temperatures", agent.GetAllTemperatures)
	g.POST("/take-pain", agent.TakePain)
	g.GET("/get-all-pains", agent.GetAllPains)
	g.POST("/schedule-appointment", agent.ScheduleAppointment)
	g.POST("/save-image", agent.SaveImage)
	g.GET("/get-all-images", agent.GetAllImages)
	g.POST("/search", agent.Search)
	g.POST("/twilio-webhook", msgs.TwilioWebhook)
	g.POST("/incoming-text", msgs.IncomingText)
	r.GET("/health", Health(env.store))
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(t *testing.T, path, body string, headers ...string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return decode(t, e.do(t, req))
}

func (e *testEnv) get(t *testing.T, path string) map[string]any {
	t.Helper()
	return decode(t, e.do(t, httptest.NewRequest(http.MethodGet, path, nil)))
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return body
}

func assertStatus(t *testing.T, body map[string]any, want string) {
	t.Helper()
	if body["status"] != want {
		t.Fatalf("expected status %q, got %v", want, body)
	}
}

// dig walks nested objects: dig(body, "a", "b") is body["a"]["b"].
func dig(body map[string]any, keys ...string) any {
	var cur any = body
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}
