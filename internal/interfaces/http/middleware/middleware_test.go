package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"qomex.backend/pkg/crypto"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/redis"
)

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("generates request id when header missing", func(t *testing.T) {
		orig := newRequestID
		newRequestID = func() string { return "req-generated" }
		t.Cleanup(func() { newRequestID = orig })

		r := gin.New()
		r.Use(RequestIDMiddleware())
		r.GET("/x", func(c *gin.Context) {
			assert.Equal(t, "req-generated", c.GetString(RequestIDKey))
			assert.Equal(t, "req-generated", c.Request.Context().Value(logger.RequestIDKey))
			c.Status(http.StatusNoContent)
		})

		rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "req-generated", rec.Header().Get(RequestIDHeader))
	})

	t.Run("uses incoming header", func(t *testing.T) {
		r := gin.New()
		r.Use(RequestIDMiddleware())
		r.GET("/x", func(c *gin.Context) {
			assert.Equal(t, "from-proxy", c.GetString(RequestIDKey))
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(RequestIDHeader, "from-proxy")
		rec := serve(r, req)
		assert.Equal(t, "from-proxy", rec.Header().Get(RequestIDHeader))
	})
}

func TestLoggerMiddleware_PassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/postback", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/postback?token=s3cret&event=ftd", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "event=ftd", redactQuery("event=ftd"))

	out := redactQuery("token=s3cret&event=ftd")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "token=REDACTED")
	assert.Contains(t, out, "event=ftd")

	assert.Equal(t, "<unparsable>", redactQuery("a=%zz"))
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://qomex.example")
	rec := serve(r, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://qomex.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(r, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type sessionReaderStub struct {
	data *redis.SessionData
	err  error
	seen string
}

func (s *sessionReaderStub) GetSession(_ context.Context, id string) (*redis.SessionData, error) {
	s.seen = id
	return s.data, s.err
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(store SessionReader) *gin.Engine {
		r := gin.New()
		r.Use(SessionMiddleware(store))
		r.GET("/open", func(c *gin.Context) {
			id, ok := GetUserID(c)
			c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok})
		})
		r.GET("/private", RequireSession(), func(c *gin.Context) {
			id, _ := GetUserID(c)
			email, _ := GetUserEmail(c)
			sid, _ := GetSessionID(c)
			assert.Equal(t, int64(7), c.Request.Context().Value(logger.UserIDKey))
			c.JSON(http.StatusOK, gin.H{"id": id, "email": email, "sid": sid})
		})
		return r
	}

	t.Run("valid session", func(t *testing.T) {
		store := &sessionReaderStub{data: &redis.SessionData{UserID: 7, Email: "a@b.c"}}
		r := newRouter(store)

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid-1"})
		rec := serve(r, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":7,"email":"a@b.c","sid":"sid-1"}`, rec.Body.String())
		assert.Equal(t, "sid-1", store.seen)
	})

	t.Run("no cookie is anonymous", func(t *testing.T) {
		r := newRouter(&sessionReaderStub{err: errors.New("must not be called")})

		rec := serve(r, httptest.NewRequest(http.MethodGet, "/open", nil))
		assert.JSONEq(t, `{"id":0,"ok":false}`, rec.Body.String())

		rec = serve(r, httptest.NewRequest(http.MethodGet, "/private", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("expired session is anonymous", func(t *testing.T) {
		r := newRouter(&sessionReaderStub{err: redis.ErrSessionNotFound})

		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "gone"})
		rec := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure is anonymous", func(t *testing.T) {
		r := newRouter(&sessionReaderStub{err: errors.New("redis down")})

		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sid"})
		rec := serve(r, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":0,"ok":false}`, rec.Body.String())
	})
}

func TestClickIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func() *gin.Engine {
		r := gin.New()
		r.Use(ClickIDMiddleware(30*24*time.Hour, false))
		r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetClickID(c)) })
		return r
	}

	t.Run("assigns on first visit", func(t *testing.T) {
		orig := generateClickID
		generateClickID = func() (string, error) { return "fresh-click", nil }
		t.Cleanup(func() { generateClickID = orig })

		rec := serve(newRouter(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "fresh-click", rec.Body.String())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, ClickIDCookie, cookies[0].Name)
		assert.Equal(t, "fresh-click", cookies[0].Value)
		assert.Equal(t, 30*24*3600, cookies[0].MaxAge)
	})

	t.Run("keeps existing cookie", func(t *testing.T) {
		orig := generateClickID
		generateClickID = func() (string, error) {
			t.Fatal("should not generate")
			return "", nil
		}
		t.Cleanup(func() { generateClickID = orig })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: ClickIDCookie, Value: "abc123"})
		rec := serve(newRouter(), req)
		assert.Equal(t, "abc123", rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("generator failure still serves", func(t *testing.T) {
		orig := generateClickID
		generateClickID = func() (string, error) { return "", errors.New("entropy") }
		t.Cleanup(func() { generateClickID = orig })

		rec := serve(newRouter(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hash, err := crypto.HashPassword("hunter2")
	require.NoError(t, err)

	newRouter := func(hash string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", AdminAuthMiddleware("admin", hash), func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString(AdminUserKey))
		})
		return r
	}

	cases := []struct {
		name     string
		user     string
		pass     string
		noAuth   bool
		hash     string
		wantCode int
	}{
		{name: "valid", user: "admin", pass: "hunter2", hash: hash, wantCode: http.StatusOK},
		{name: "wrong password", user: "admin", pass: "nope", hash: hash, wantCode: http.StatusUnauthorized},
		{name: "wrong user", user: "root", pass: "hunter2", hash: hash, wantCode: http.StatusUnauthorized},
		{name: "missing header", noAuth: true, hash: hash, wantCode: http.StatusUnauthorized},
		{name: "unconfigured hash", user: "admin", pass: "hunter2", hash: "", wantCode: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if !tc.noAuth {
				req.SetBasicAuth(tc.user, tc.pass)
			}
			rec := serve(newRouter(tc.hash), req)
			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantCode == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="admin"`, rec.Header().Get("WWW-Authenticate"))
			} else {
				assert.Equal(t, "admin", rec.Body.String())
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(max int64) *gin.Engine {
		r := gin.New()
		r.POST("/auth", RateLimitMiddleware("auth", max, time.Minute), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	t.Run("blocks after max", func(t *testing.T) {
		counts := map[string]int64{}
		orig := incrWindow
		incrWindow = func(_ context.Context, key string, _ time.Duration) (int64, error) {
			counts[key]++
			return counts[key], nil
		}
		t.Cleanup(func() { incrWindow = orig })

		r := newRouter(2)
		for i := 0; i < 2; i++ {
			rec := serve(r, httptest.NewRequest(http.MethodPost, "/auth", nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
		rec := serve(r, httptest.NewRequest(http.MethodPost, "/auth", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		assert.Len(t, counts, 1)
	})

	t.Run("fails open on redis error", func(t *testing.T) {
		orig := incrWindow
		incrWindow = func(context.Context, string, time.Duration) (int64, error) {
			return 0, errors.New("redis down")
		}
		t.Cleanup(func() { incrWindow = orig })

		rec := serve(newRouter(1), httptest.NewRequest(http.MethodPost, "/auth", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled when max is zero", func(t *testing.T) {
		orig := incrWindow
		incrWindow = func(context.Context, string, time.Duration) (int64, error) {
			t.Fatal("should not be called")
			return 0, nil
		}
		t.Cleanup(func() { incrWindow = orig })

		rec := serve(newRouter(0), httptest.NewRequest(http.MethodPost, "/auth", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCookieHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	SetCookie(c, SessionCookie, "sid", 0, true, true)
	ClearCookie(c, UserEmailCookie, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "sid", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, UserEmailCookie, cookies[1].Name)
	assert.Less(t, cookies[1].MaxAge, 0)
}

func TestCookieHelpers_EscapedValueRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	SetCookie(c, UserEmailCookie, "alice@example.com", 0, false, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "alice%40example.com", cookies[0].Value)

	r := gin.New()
	var got string
	r.GET("/", func(c *gin.Context) {
		got, _ = c.Cookie(UserEmailCookie)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	serve(r, req)
	assert.Equal(t, "alice@example.com", got)
}
