package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/authsession"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/routeguard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// hub is an in-memory stand-in for the estate hub API.
type hub struct {
	mu       sync.Mutex
	sessions map[string]string
	seq      int
	sale     []models.SaleProperty
	rental   []models.RentalProperty
	hits     atomic.Int32

	catalogGate  chan struct{} // first catalog request waits on it when set
	catalogSeen  chan struct{}
	catalogCalls atomic.Int32
	deleteGate   chan struct{}
	deleteFail   bool

	activityLimit string

	authGate chan struct{} // protected requests wait on it when set
	authSeen chan struct{}
}

func (h *hub) setDelete(gate chan struct{}, fail bool) {
	h.mu.Lock()
	h.deleteGate, h.deleteFail = gate, fail
	h.mu.Unlock()
}

var alice = &models.User{ID: "alice", Email: "alice@example.com", EmailConfirmed: true}

func newHub() *hub {
	loc := "Civil Lines"
	return &hub{
		sessions: map[string]string{},
		sale: []models.SaleProperty{
			{ID: "s1", OwnerID: "alice", Title: "Villa", Price: 8_500_000, PropertyType: "villa", Location: &loc},
			{ID: "s2", OwnerID: "alice", Title: "Plot", Price: 3_000_000, PropertyType: "plot"},
			{ID: "s3", OwnerID: "alice", Title: "Bungalow", Price: 12_500_000, PropertyType: "house"},
		},
		rental: []models.RentalProperty{
			{ID: "r1", OwnerID: "alice", Title: "2BHK", MonthlyRent: 18_000, PropertyType: "apartment"},
		},
	}
}

func (h *hub) fail(w http.ResponseWriter, err error) { apperr.WriteJSON(w, err) }

func (h *hub) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *hub) user(r *http.Request) (string, bool) {
	sid := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-")
	if sid == "" || sid == r.Header.Get("Authorization") {
		c, err := r.Cookie("session_id")
		if err != nil {
			return "", false
		}
		sid = c.Value
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	uid, ok := h.sessions[sid]
	return uid, ok
}

func (h *hub) dropSessions() {
	h.mu.Lock()
	h.sessions = map[string]string{}
	h.mu.Unlock()
}

func (h *hub) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.hits.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req models.SignInRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != alice.Email || req.Password != "secret1" {
			h.fail(w, apperr.New(apperr.Auth, "signin", "invalid login credentials"))
			return
		}
		h.mu.Lock()
		h.seq++
		sid := fmt.Sprintf("sid%d", h.seq)
		h.sessions[sid] = alice.ID
		h.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session_id", Value: sid, Path: "/"})
		h.reply(w, http.StatusOK, models.SessionResponse{User: alice, AccessToken: "tok-" + sid})
	})
	r.Post("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		var req models.SignUpRequest
		json.NewDecoder(r.Body).Decode(&req)
		h.reply(w, http.StatusCreated, models.SignUpResponse{User: &models.User{ID: "new", Email: req.Email}, NeedsConfirmation: true})
	})
	r.Post("/api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		h.dropSessions()
		http.SetCookie(w, &http.Cookie{Name: "session_id", Path: "/", MaxAge: -1})
		w.Write([]byte(`{"message":"signed out"}`))
	})
	r.Get("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.user(r); ok {
			h.reply(w, http.StatusOK, models.SessionResponse{User: alice})
			return
		}
		w.Write([]byte(`{"user":null}`))
	})
	r.Get("/api/buy", func(w http.ResponseWriter, r *http.Request) {
		if h.catalogCalls.Add(1) == 1 && h.catalogGate != nil {
			close(h.catalogSeen)
			<-h.catalogGate
		}
		h.mu.Lock()
		items := make([]catalog.Item, 0, len(h.sale))
		for _, p := range h.sale {
			items = append(items, catalog.FromSale(p))
		}
		h.mu.Unlock()
		h.reply(w, http.StatusOK, map[string]any{"kind": "sale", "items": items})
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				h.mu.Lock()
				gate, seen := h.authGate, h.authSeen
				h.authGate, h.authSeen = nil, nil
				h.mu.Unlock()
				if gate != nil {
					close(seen)
					<-gate
				}
				if _, ok := h.user(r); !ok {
					h.fail(w, apperr.ErrAuthRequired)
					return
				}
				next.ServeHTTP(w, r)
			})
		})
		r.Get("/api/my-properties", func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.reply(w, http.StatusOK, listing.Owned{Sale: h.sale, Rental: h.rental})
		})
		r.Delete("/api/my-properties/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			gate, fail := h.deleteGate, h.deleteFail
			h.mu.Unlock()
			if gate != nil {
				<-gate
			}
			if fail {
				h.fail(w, apperr.ErrUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/api/sell", func(w http.ResponseWriter, r *http.Request) {
			var f listing.SaleForm
			json.NewDecoder(r.Body).Decode(&f)
			p, err := listing.ValidateSale(f)
			if err != nil {
				h.fail(w, err)
				return
			}
			p.ID, p.OwnerID = "s9", alice.ID
			h.reply(w, http.StatusCreated, p)
		})
		r.Get("/api/account", func(w http.ResponseWriter, r *http.Request) {
			name := "Alice"
			h.reply(w, http.StatusOK, models.Account{ID: alice.ID, Email: alice.Email, DisplayName: &name})
		})
		r.Get("/api/account/activity", func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			h.activityLimit = r.URL.Query().Get("limit")
			h.mu.Unlock()
			h.reply(w, http.StatusOK, []models.Activity{{UserID: alice.ID, Action: models.ActionListingCreated}})
		})
	})
	return r
}

func start(t *testing.T, h *hub) (*App, *Client) {
	t.Helper()
	srv := httptest.NewServer(h.router())
	t.Cleanup(srv.Close)
	api := New(srv.URL, 5*time.Second, zap.NewNop())
	t.Cleanup(api.Close)
	return NewApp(api, zap.NewNop(), authsession.WithTimeout(5*time.Second)), api
}

func signIn(t *testing.T, app *App) {
	t.Helper()
	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Session.SignIn(context.Background(), alice.Email, "secret1"))
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	app, _ := start(t, newHub())

	assert.Equal(t, routeguard.Loading, app.Navigate("/sell").Outcome)
	require.NoError(t, app.Start(ctx))
	assert.Equal(t, authsession.Anonymous, app.Session.Snapshot().State)
	assert.Equal(t, routeguard.Decision{Outcome: routeguard.Redirect, Target: "/auth"}, app.Navigate("/sell"))
	assert.Equal(t, routeguard.Render, app.Navigate("/buy").Outcome)
	assert.Equal(t, routeguard.Render, app.Navigate("/auth").Outcome)

	err := app.Session.SignIn(ctx, alice.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, apperr.Auth, apperr.KindOf(err))
	assert.Equal(t, "invalid login credentials", apperr.PublicMessage(err))
	assert.Equal(t, authsession.Anonymous, app.Session.Snapshot().State)

	require.NoError(t, app.Session.SignIn(ctx, alice.Email, "secret1"))
	assert.Equal(t, routeguard.Render, app.Navigate("/my-properties").Outcome)
	assert.Equal(t, routeguard.Decision{Outcome: routeguard.Redirect, Target: "/"}, app.Navigate("/auth"))

	require.NoError(t, app.Session.Init(ctx))
	assert.Equal(t, alice.ID, app.Session.Snapshot().User.ID)

	require.NoError(t, app.Session.SignOut(ctx))
	assert.Equal(t, authsession.Anonymous, app.Session.Snapshot().State)
	require.NoError(t, app.Session.Init(ctx))
	assert.Equal(t, authsession.Anonymous, app.Session.Snapshot().State)
}

func TestStartWithServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	api := New(url, time.Second, nil)
	defer api.Close()
	app := NewApp(api, nil)

	err := app.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.Network, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.True(t, app.Session.Snapshot().IsLoading())
	assert.Equal(t, routeguard.Loading, app.Navigate("/account").Outcome)
}

func TestSignUpNeedsConfirmation(t *testing.T) {
	app, _ := start(t, newHub())
	require.NoError(t, app.Start(context.Background()))

	res, err := app.Session.SignUp(context.Background(), authsession.SignUpRequest{
		Email: "new@example.com", Password: "secret1", FullName: "New User",
	})
	require.NoError(t, err)
	assert.True(t, res.NeedsConfirmation)
	assert.Nil(t, res.User)
	assert.Equal(t, authsession.Anonymous, app.Session.Snapshot().State)
}

func TestRemoteExpiry(t *testing.T) {
	h := newHub()
	app, _ := start(t, h)
	signIn(t, app)

	h.dropSessions()
	err := app.MyProperties().Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.Auth, apperr.KindOf(err))

	require.Eventually(t, func() bool {
		return app.Session.Snapshot().State == authsession.Anonymous
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, routeguard.Redirect, app.Navigate("/my-properties").Outcome)
}

func TestLateRejectionKeepsNewSession(t *testing.T) {
	h := newHub()
	app, _ := start(t, h)
	signIn(t, app)

	h.dropSessions()
	gate, seen := make(chan struct{}), make(chan struct{})
	h.mu.Lock()
	h.authGate, h.authSeen = gate, seen
	h.mu.Unlock()

	loaded := make(chan error, 1)
	go func() { loaded <- app.MyProperties().Load(context.Background()) }()
	<-seen

	require.NoError(t, app.Session.SignIn(context.Background(), alice.Email, "secret1"))
	close(gate)
	err := <-loaded
	assert.Equal(t, apperr.Auth, apperr.KindOf(err))

	assert.Never(t, func() bool {
		return app.Session.Snapshot().State != authsession.Authenticated
	}, 200*time.Millisecond, 10*time.Millisecond)

	h.dropSessions()
	require.Error(t, app.MyProperties().Load(context.Background()))
	require.Eventually(t, func() bool {
		return app.Session.Snapshot().State == authsession.Anonymous
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCatalogViewDropsStaleLoad(t *testing.T) {
	h := newHub()
	h.catalogGate = make(chan struct{})
	h.catalogSeen = make(chan struct{})
	app, _ := start(t, h)
	view := app.Catalog(models.KindSale)
	assert.False(t, view.Loaded())

	first := make(chan error, 1)
	go func() { first <- view.Load(context.Background()) }()
	<-h.catalogSeen

	require.NoError(t, view.Load(context.Background()))
	h.mu.Lock()
	h.sale = h.sale[:1]
	h.mu.Unlock()
	close(h.catalogGate)

	err := <-first
	assert.ErrorIs(t, err, ErrStale)
	assert.True(t, IsStale(err))
	assert.True(t, view.Loaded())
	assert.Len(t, view.Visible(), 3, "the superseded response must not overwrite the newer one")

	require.NoError(t, view.SetCriteria(catalog.Criteria{Query: "civil", Bracket: "mid"}))
	got := view.Visible()
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)

	err = view.SetCriteria(catalog.Criteria{Bracket: "bogus"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Equal(t, "mid", view.Criteria().Bracket)

	view.Close()
	assert.ErrorIs(t, view.Load(context.Background()), ErrStale)
}

func ids(ps []models.SaleProperty) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestOptimisticDeleteRestoresOnFailure(t *testing.T) {
	h := newHub()
	app, _ := start(t, h)
	signIn(t, app)

	mine := app.MyProperties()
	require.NoError(t, mine.Load(context.Background()))
	require.Empty(t, cmp.Diff([]string{"s1", "s2", "s3"}, ids(mine.Sale())))

	gate := make(chan struct{})
	h.setDelete(gate, true)
	done := make(chan error, 1)
	go func() { done <- mine.Delete(context.Background(), models.KindSale, "s2") }()

	require.Eventually(t, func() bool { return len(mine.Sale()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, cmp.Diff([]string{"s1", "s3"}, ids(mine.Sale())))
	close(gate)

	err := <-done
	require.Error(t, err)
	assert.Equal(t, apperr.Network, apperr.KindOf(err))
	assert.Empty(t, cmp.Diff([]string{"s1", "s2", "s3"}, ids(mine.Sale())), "restored at its original index")
	assert.Equal(t, authsession.Authenticated, app.Session.Snapshot().State)

	h.setDelete(nil, false)
	require.NoError(t, mine.Delete(context.Background(), models.KindSale, "s3"))
	assert.Empty(t, cmp.Diff([]string{"s1", "s2"}, ids(mine.Sale())))

	err = mine.Delete(context.Background(), models.KindRental, "nope")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Len(t, mine.Rental(), 1)
}

func TestSubmitSale(t *testing.T) {
	h := newHub()
	app, _ := start(t, h)
	ctx := context.Background()
	require.NoError(t, app.Start(ctx))

	form := listing.SaleForm{Title: "Farmhouse", Price: "₹2,50,00,000", PropertyType: "farmhouse"}
	before := h.hits.Load()
	_, err := app.SubmitSale(ctx, form)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.Equal(t, before, h.hits.Load(), "nothing sent while anonymous")

	require.NoError(t, app.Session.SignIn(ctx, alice.Email, "secret1"))
	before = h.hits.Load()
	_, err = app.SubmitSale(ctx, listing.SaleForm{Title: "Farmhouse", Price: "lots", PropertyType: "farmhouse"})
	assert.ErrorIs(t, err, listing.ErrInvalidNumber)
	assert.Equal(t, "price", apperr.FieldOf(err))
	assert.Equal(t, before, h.hits.Load())

	created, err := app.SubmitSale(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "s9", created.ID)
	assert.Equal(t, alice.ID, created.OwnerID)
	assert.EqualValues(t, 25_000_000, created.Price)
}

func TestAccountPage(t *testing.T) {
	h := newHub()
	app, _ := start(t, h)
	_, err := app.Account(context.Background(), 5)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	signIn(t, app)
	page, err := app.Account(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *page.Account.DisplayName)
	require.Len(t, page.Activity, 1)
	assert.Equal(t, models.ActionListingCreated, page.Activity[0].Action)
	assert.Equal(t, "5", h.activityLimit)
}

func TestCheckResp(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
		kind   apperr.Kind
		msg    string
	}{
		{http.StatusInternalServerError, "boom", apperr.Internal, "internal error"},
		{http.StatusServiceUnavailable, `{"error":"session is still loading","kind":"network"}`, apperr.Network, "session is still loading"},
		{http.StatusBadRequest, `{"error":"title is required","kind":"validation","field":"title"}`, apperr.Validation, "title is required"},
		{http.StatusNotFound, "", apperr.NotFound, "not found"},
	} {
		rec := httptest.NewRecorder()
		rec.WriteHeader(tc.status)
		rec.WriteString(tc.body)
		err := checkResp(rec.Result(), http.MethodGet, "/x")
		require.Error(t, err)
		assert.Equal(t, tc.kind, apperr.KindOf(err), tc.body)
		assert.Equal(t, tc.msg, apperr.PublicMessage(err), tc.body)
	}
}
