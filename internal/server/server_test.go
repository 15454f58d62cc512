package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElMariones/portfolio/internal/content"
	"github.com/ElMariones/portfolio/internal/session"
	"github.com/ElMariones/portfolio/internal/submission"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t       *testing.T
	srv     *Server
	store   *session.Store
	content *content.Store
	cookie  *http.Cookie
}

func newHarness(t *testing.T, sender submission.Sender) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contentStore := content.NewStore(content.Default())
	sessions := session.NewStore(session.Factory{
		Projects: contentStore.ProjectIDs,
		Sender:   sender,
		Options: []submission.Option{
			submission.WithResetDelay(300 * time.Millisecond),
			submission.WithLogger(logger),
		},
	}, time.Hour, logger)
	t.Cleanup(sessions.Close)

	srv, err := New(Options{
		Content:   contentStore,
		Sessions:  sessions,
		Logger:    logger,
		StaticDir: t.TempDir(),
	})
	require.NoError(t, err)
	return &harness{t: t, srv: srv, store: sessions, content: contentStore}
}

func (h *harness) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			h.cookie = c
		}
	}
	return w
}

var okSender = submission.SenderFunc(func(context.Context, submission.Payload) error { return nil })

func validForm() url.Values {
	return url.Values{
		"fullName": {"Ada Lovelace"},
		"email":    {"ada@example.com"},
		"message":  {"Hello!"},
	}
}

func TestIndex(t *testing.T) {
	h := newHarness(t, okSender)

	w := h.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Mario Landáburu")
	assert.Contains(t, body, "Intern Software Engineer")
	for _, p := range content.Default().Projects {
		assert.Contains(t, body, p.Title)
	}
	assert.NotContains(t, body, `class="details"`, "all panels start collapsed")
	assert.Contains(t, body, "Send a Message")
	assert.NotContains(t, body, "<iframe")

	require.NotNil(t, h.cookie)
	assert.True(t, h.cookie.HttpOnly)
	assert.Equal(t, 1, h.store.Len())

	h.do(http.MethodGet, "/", nil)
	assert.Equal(t, 1, h.store.Len(), "cookie reuses the session")
}

func TestToggleProject(t *testing.T) {
	h := newHarness(t, okSender)
	h.do(http.MethodGet, "/", nil)

	w := h.do(http.MethodPost, "/projects/harmonia/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Designed and implemented modular backend logic")
	assert.Equal(t, 1, strings.Count(w.Body.String(), `aria-expanded="true"`))

	w = h.do(http.MethodPost, "/projects/all-in/toggle", nil)
	assert.NotContains(t, w.Body.String(), "Designed and implemented modular backend logic")
	assert.Contains(t, w.Body.String(), "poker-inspired card-duel system")
	assert.Equal(t, 1, strings.Count(w.Body.String(), `aria-expanded="true"`))

	w = h.do(http.MethodPost, "/projects/all-in/toggle", nil)
	assert.NotContains(t, w.Body.String(), `aria-expanded="true"`)

	w = h.do(http.MethodPost, "/projects/does-not-exist/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `aria-expanded="true"`)

	// The full page reflects the session's state.
	h.do(http.MethodPost, "/projects/ecommerce/toggle", nil)
	w = h.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "Performed deep SEO analysis")
}

func TestToggleProject_AfterContentReload(t *testing.T) {
	h := newHarness(t, okSender)
	h.do(http.MethodGet, "/", nil)
	h.do(http.MethodPost, "/projects/harmonia/toggle", nil)

	next := content.Default()
	next.Projects = append(next.Projects, content.Project{
		ID:      "fresh",
		Title:   "Fresh Project",
		Details: []string{"Shipped after the page loaded."},
	})
	h.content.Set(next)

	w := h.do(http.MethodPost, "/projects/fresh/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Shipped after the page loaded.")
	assert.Equal(t, 1, strings.Count(w.Body.String(), `aria-expanded="true"`))

	trimmed := content.Default()
	trimmed.Projects = trimmed.Projects[:1]
	h.content.Set(trimmed)

	w = h.do(http.MethodGet, "/", nil)
	assert.NotContains(t, w.Body.String(), "Shipped after the page loaded.")
	assert.NotContains(t, w.Body.String(), `aria-expanded="true"`)
}

func TestToggleProject_SessionsAreIndependent(t *testing.T) {
	h := newHarness(t, okSender)
	h.do(http.MethodGet, "/", nil)
	h.do(http.MethodPost, "/projects/harmonia/toggle", nil)

	other := newHarness(t, okSender)
	other.srv = h.srv
	w := other.do(http.MethodGet, "/", nil)
	assert.NotContains(t, w.Body.String(), "Designed and implemented modular backend logic")
}

func TestCVModal(t *testing.T) {
	h := newHarness(t, okSender)
	h.do(http.MethodGet, "/", nil)

	w := h.do(http.MethodPost, "/cv/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<iframe")
	assert.Contains(t, w.Body.String(), "JavaScript")

	w = h.do(http.MethodPost, "/cv/close", nil)
	assert.NotContains(t, w.Body.String(), "<iframe")

	w = h.do(http.MethodPost, "/cv/close", nil)
	assert.NotContains(t, w.Body.String(), "<iframe")
}

func TestContact_Invalid(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, submission.SenderFunc(func(context.Context, submission.Payload) error {
		calls.Add(1)
		return nil
	}))

	form := validForm()
	form.Set("email", "not-an-email")
	w := h.do(http.MethodPost, "/contact", form)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), invalidContactMessage)
	assert.Contains(t, w.Body.String(), `value="Ada Lovelace"`)
	assert.Zero(t, calls.Load())

	form = validForm()
	form.Del("message")
	w = h.do(http.MethodPost, "/contact", form)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, calls.Load())
}

func TestContact_BlankFields(t *testing.T) {
	var calls atomic.Int32
	h := newHarness(t, submission.SenderFunc(func(context.Context, submission.Payload) error {
		calls.Add(1)
		return nil
	}))

	form := validForm()
	form.Set("fullName", "   ")
	form.Set("message", "  \n  ")
	w := h.do(http.MethodPost, "/contact", form)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), invalidContactMessage)
	assert.NotContains(t, w.Body.String(), "hx-trigger", "nothing was submitted")
	assert.NotContains(t, h.do(http.MethodGet, "/contact/status", nil).Body.String(), "hx-trigger")
	assert.Zero(t, calls.Load())
}

func TestContactPollInterval(t *testing.T) {
	h := newHarness(t, okSender)
	h.srv.pollEvery = time.Minute
	d := h.srv.contact(submission.State{Phase: submission.Pending})
	assert.Equal(t, "60000ms", d.PollEvery)
}

func TestContact_Success(t *testing.T) {
	var got atomic.Pointer[submission.Payload]
	h := newHarness(t, submission.SenderFunc(func(_ context.Context, p submission.Payload) error {
		got.Store(&p)
		return nil
	}))

	w := h.do(http.MethodPost, "/contact", validForm())
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		return strings.Contains(h.do(http.MethodGet, "/contact/status", nil).Body.String(), "Message Sent!")
	}, 2*time.Second, 5*time.Millisecond)

	require.NotNil(t, got.Load())
	assert.Equal(t, submission.Payload{Name: "Ada Lovelace", Email: "ada@example.com", Message: "Hello!"}, *got.Load())

	// Back to an empty form once the reset delay has passed.
	assert.Eventually(t, func() bool {
		body := h.do(http.MethodGet, "/contact/status", nil).Body.String()
		return strings.Contains(body, "Send a Message") && !strings.Contains(body, "hx-trigger")
	}, 2*time.Second, 10*time.Millisecond)
	body := h.do(http.MethodGet, "/contact-form", nil).Body.String()
	assert.NotContains(t, body, "Ada Lovelace")
}

func TestContact_Failure(t *testing.T) {
	h := newHarness(t, submission.SenderFunc(func(context.Context, submission.Payload) error {
		return errors.New("smtp: 535 authentication failed")
	}))

	h.do(http.MethodPost, "/contact", validForm())

	assert.Eventually(t, func() bool {
		return strings.Contains(h.do(http.MethodGet, "/contact/status", nil).Body.String(), submission.DefaultFailureMessage)
	}, 2*time.Second, 5*time.Millisecond)

	body := h.do(http.MethodGet, "/contact/status", nil).Body.String()
	assert.Contains(t, body, `value="Ada Lovelace"`, "draft kept for retry")
	assert.NotContains(t, body, "535")
	assert.NotContains(t, body, "hx-trigger", "failed form does not poll")
}

func TestContact_PendingDisablesSubmit(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	h := newHarness(t, submission.SenderFunc(func(context.Context, submission.Payload) error {
		calls.Add(1)
		<-release
		return nil
	}))
	defer close(release)

	w := h.do(http.MethodPost, "/contact", validForm())
	assert.Contains(t, w.Body.String(), "disabled")
	assert.Contains(t, w.Body.String(), `hx-trigger="every 500ms"`)

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	h.do(http.MethodPost, "/contact", validForm())
	assert.EqualValues(t, 1, calls.Load())
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, okSender)
	w := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Nil(t, h.cookie, "health checks do not open sessions")
}

func TestHashIP(t *testing.T) {
	h := newHarness(t, okSender)
	a := h.srv.hashIP("203.0.113.7")
	assert.Len(t, a, 16)
	assert.Equal(t, a, h.srv.hashIP("203.0.113.7"))
	assert.NotEqual(t, a, h.srv.hashIP("203.0.113.8"))
}
