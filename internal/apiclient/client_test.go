package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carshare-web/internal/model"
)

type fakeSession struct {
	token   string
	expired int
}

func (s *fakeSession) Token(context.Context) string { return s.token }

func (s *fakeSession) Expire(context.Context) {
	s.expired++
	s.token = ""
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL + "/api")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	c := New("https://example.com/api/")
	assert.Equal(t, "https://example.com/api", c.BaseURL())
	assert.Equal(t, "https://example.com/api/rest", c.RESTBaseURL())
	assert.NotNil(t, c.Auth)
	assert.NotNil(t, c.Cars)
	assert.NotNil(t, c.Bookings)
	assert.NotNil(t, c.Tickets)
	assert.NotNil(t, c.Reports)
	assert.NotNil(t, c.Users)
	assert.NotNil(t, c.Reviews)

	c = New("https://example.com/api", WithRESTBaseURL("https://rest.example.com/v1/"))
	assert.Equal(t, "https://rest.example.com/v1", c.RESTBaseURL())
}

func TestWithSession_SharesTransport(t *testing.T) {
	hc := &http.Client{}
	base := New("https://example.com/api", WithHTTPClient(hc))
	scoped := base.WithSession(&fakeSession{token: "t"})
	assert.Same(t, hc, scoped.httpClient)
	assert.Nil(t, base.session)
	assert.NotNil(t, scoped.session)
	assert.Same(t, scoped, scoped.Cars.client)
}

func TestDo_AttachesToken(t *testing.T) {
	var gotAuth, gotPath string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, []model.Car{{ID: 7}})
	})
	c = c.WithSession(&fakeSession{token: "abc123"})

	cars, err := c.Cars.Owned(context.Background())
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, int64(7), cars[0].ID)
	assert.Equal(t, "Token abc123", gotAuth)
	assert.Equal(t, "/api/owner-cars/", gotPath)
}

func TestDo_PublicCallSendsNoToken(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []model.Car{})
	})
	c = c.WithSession(&fakeSession{token: "abc123"})

	_, err := c.Cars.Available(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDo_NoTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c = c.WithSession(&fakeSession{})

	_, err := c.Tickets.Mine(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.True(t, IsSessionExpired(err))
	assert.Zero(t, calls.Load())
}

func TestDo_UnauthorizedExpiresSession(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
	})
	sess := &fakeSession{token: "stale"}
	c = c.WithSession(sess)

	_, err := c.Bookings.Owned(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, sess.expired)
	assert.Equal(t, "Invalid token.", MessageOf(err, ""))
}

func TestDo_ForbiddenInvalidTokenExpiresSession(t *testing.T) {
	tests := []struct {
		name    string
		detail  string
		expired int
	}{
		{name: "invalid token", detail: "Invalid token.", expired: 1},
		{name: "no credentials", detail: "Authentication credentials were not provided.", expired: 1},
		{name: "permission", detail: "You do not have permission to perform this action.", expired: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]string{"detail": tt.detail})
			})
			sess := &fakeSession{token: "t"}
			c = c.WithSession(sess)

			_, err := c.Cars.Owned(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.expired, sess.expired)
			assert.Equal(t, tt.expired == 1, IsSessionExpired(err))
		})
	}
}

func TestDo_PublicUnauthorizedDoesNotExpire(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
	})
	sess := &fakeSession{token: "t"}
	c = c.WithSession(sess)

	_, err := c.Auth.Login(context.Background(), "bob", "wrong")
	require.Error(t, err)
	assert.Zero(t, sess.expired)
	assert.False(t, IsSessionExpired(err))
	assert.Equal(t, "Invalid credentials", MessageOf(err, ""))
}

func TestDo_FallbackMessage(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.Cars.Available(context.Background())
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Could not load cars.", apiErr.Message)
	assert.Equal(t, BodyUnknown, apiErr.Body.Kind)
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c := New(server.URL)
	server.Close()

	_, err := c.Cars.Available(context.Background())
	require.Error(t, err)
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsNetwork())
	assert.Equal(t, "Could not load cars.", apiErr.Message)
}

func TestDo_EmptySuccessBody(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/admin/cars/3/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	c = c.WithSession(&fakeSession{token: "t"})
	require.NoError(t, c.Cars.AdminDelete(context.Background(), 3))
}

func TestLogin_FormEncoded(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login/", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok",
			"user":  map[string]any{"id": 1, "username": "alice", "role": "owner"},
		})
	})

	resp, err := c.Auth.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, model.RoleOwner, resp.User.Role)
}

func TestBecomeOwner_AcceptsWrappedOrBareUser(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "wrapped", body: `{"user": {"id": 4, "role": "owner"}}`},
		{name: "bare", body: `{"id": 4, "role": "owner"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			})
			c = c.WithSession(&fakeSession{token: "t"})
			u, err := c.Auth.BecomeOwner(context.Background())
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.Equal(t, int64(4), u.ID)
			assert.Equal(t, model.RoleOwner, u.Role)
		})
	}
}

func TestCreateCar_Multipart(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/create/", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Toyota", r.FormValue("make"))
		assert.Equal(t, "45.50", r.FormValue("daily_rate"))
		assert.Equal(t, []string{"gps", "bluetooth"}, r.MultipartForm.Value["features"])
		assert.Equal(t, []string{"data:image/png;base64,AAAA"}, r.MultipartForm.Value["images"])
		assert.JSONEq(t, `[{"start_date":"2026-01-01","end_date":"2026-01-10"}]`, r.FormValue("availability"))

		if files := r.MultipartForm.File["documents"]; assert.Len(t, files, 1) {
			assert.Equal(t, "registration.pdf", files[0].Filename)
		}
		writeJSON(w, http.StatusCreated, model.Car{ID: 11, Make: "Toyota", Status: model.CarPending})
	})
	c = c.WithSession(&fakeSession{token: "t"})

	car, err := c.Cars.Create(context.Background(), NewCar{
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2022,
		DailyRate:    45.5,
		Location:     "Austin",
		Seats:        5,
		Features:     []string{"gps", "bluetooth"},
		Images:       []string{"data:image/png;base64,AAAA"},
		Availability: []model.DateRange{{StartDate: "2026-01-01", EndDate: "2026-01-10"}},
		Documents:    []File{{Field: "documents", Name: "registration.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), car.ID)
	assert.Equal(t, model.CarPending, car.Status)
}

func TestAdminCars_FilterQuery(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.Equal(t, "9", r.URL.Query().Get("owner_id"))
		assert.False(t, r.URL.Query().Has("search"))
		writeJSON(w, http.StatusOK, []model.Car{})
	})
	c = c.WithSession(&fakeSession{token: "t"})

	_, err := c.Cars.Admin(context.Background(), AdminCarFilter{Status: model.CarPending, OwnerID: 9})
	require.NoError(t, err)
}

func TestViewset_UsesRESTBase(t *testing.T) {
	var gotPath, gotMethod string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		writeJSON(w, http.StatusOK, model.User{ID: 5, Role: model.RoleSupport})
	})
	c = c.WithSession(&fakeSession{token: "t"})

	u, err := c.Users.Patch(context.Background(), 5, map[string]string{"role": "support"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSupport, u.Role)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/rest/users/5/", gotPath)
}

func TestDecideBooking(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/booking-approval/12/", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approve", body["action"])
		writeJSON(w, http.StatusOK, map[string]any{"id": 12, "status": "approved"})
	})
	c = c.WithSession(&fakeSession{token: "t"})

	b, err := c.Bookings.Decide(context.Background(), 12, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, int64(12), b.ID)
}

func TestMetricPath(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"/owner-cars/", "/owner-cars/"},
		{"/tickets/42/replies/", "/tickets/{id}/replies/"},
		{"/admin/cars/7/", "/admin/cars/{id}/"},
		{"users/3", "/users/{id}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, metricPath(tt.in))
		})
	}
}
