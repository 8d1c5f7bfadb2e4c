package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"qomex.backend/internal/domain/entities"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/pkg/redis"
	"qomex.backend/pkg/utils"
	"qomex.backend/web"
)

var testCookies = CookieConfig{
	SessionTTL:  24 * time.Hour,
	RememberTTL: 30 * 24 * time.Hour,
	ClickIDTTL:  30 * 24 * time.Hour,
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.MustTemplates())
	return r
}

// asUser pretends SessionMiddleware resolved a session for userID
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.SessionIDKey, "previous-session")
		c.Next()
	}
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

type postbackServiceStub struct {
	receiveFn func(ctx context.Context, raw map[string]string) (*entities.PostbackResult, error)
}

func (s postbackServiceStub) Receive(ctx context.Context, raw map[string]string) (*entities.PostbackResult, error) {
	return s.receiveFn(ctx, raw)
}

type authServiceStub struct {
	submitFn  func(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error)
	getUserFn func(ctx context.Context, id int64) (*entities.User, error)
}

func (s authServiceStub) Submit(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error) {
	return s.submitFn(ctx, input)
}

func (s authServiceStub) GetUserByID(ctx context.Context, id int64) (*entities.User, error) {
	return s.getUserFn(ctx, id)
}

type reconcilerStub struct {
	calls []int64
	n     int
	err   error
}

func (s *reconcilerStub) AttachPending(_ context.Context, userID int64) (int, error) {
	s.calls = append(s.calls, userID)
	return s.n, s.err
}

type depositServiceStub struct {
	checkFn     func(ctx context.Context, traderID string) (entities.DepositCheck, error)
	checkUserFn func(user *entities.User) entities.DepositCheck
	verifyFn    func(ctx context.Context, userID int64, submitted string) (entities.ClaimResult, error)
}

func (s depositServiceStub) Check(ctx context.Context, traderID string) (entities.DepositCheck, error) {
	return s.checkFn(ctx, traderID)
}

func (s depositServiceStub) CheckUser(user *entities.User) entities.DepositCheck {
	return s.checkUserFn(user)
}

func (s depositServiceStub) VerifyClaim(ctx context.Context, userID int64, submitted string) (entities.ClaimResult, error) {
	return s.verifyFn(ctx, userID, submitted)
}

type resetServiceStub struct {
	requestFn  func(ctx context.Context, email string) (string, error)
	validateFn func(ctx context.Context, token string) (*entities.User, error)
	resetFn    func(ctx context.Context, token, newPassword string) error
}

func (s resetServiceStub) RequestReset(ctx context.Context, email string) (string, error) {
	return s.requestFn(ctx, email)
}

func (s resetServiceStub) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	return s.validateFn(ctx, token)
}

func (s resetServiceStub) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetFn(ctx, token, newPassword)
}

type adminServiceStub struct {
	listUsersFn     func(ctx context.Context, filter entities.UserListFilter, p utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error)
	getUserFn       func(ctx context.Context, id int64) (*entities.User, error)
	updateUserFn    func(ctx context.Context, id int64, input *entities.UpdateUserInput) (*entities.User, error)
	reconcileFn     func(ctx context.Context, id int64) (int, error)
	listPostbacksFn func(ctx context.Context, filter entities.PostbackListFilter, p utils.PaginationParams) ([]*entities.PostbackLog, utils.PaginationMeta, error)
	getPostbackFn   func(ctx context.Context, id int64) (*entities.PostbackLog, error)
}

func (s adminServiceStub) ListUsers(ctx context.Context, filter entities.UserListFilter, p utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error) {
	return s.listUsersFn(ctx, filter, p)
}

func (s adminServiceStub) GetUser(ctx context.Context, id int64) (*entities.User, error) {
	return s.getUserFn(ctx, id)
}

func (s adminServiceStub) UpdateUser(ctx context.Context, id int64, input *entities.UpdateUserInput) (*entities.User, error) {
	return s.updateUserFn(ctx, id, input)
}

func (s adminServiceStub) ReconcileUser(ctx context.Context, id int64) (int, error) {
	return s.reconcileFn(ctx, id)
}

func (s adminServiceStub) ListPostbacks(ctx context.Context, filter entities.PostbackListFilter, p utils.PaginationParams) ([]*entities.PostbackLog, utils.PaginationMeta, error) {
	return s.listPostbacksFn(ctx, filter, p)
}

func (s adminServiceStub) GetPostback(ctx context.Context, id int64) (*entities.PostbackLog, error) {
	return s.getPostbackFn(ctx, id)
}

type sessionManagerStub struct {
	created   map[string]*redis.SessionData
	ttls      map[string]time.Duration
	deleted   []string
	createErr error
}

func newSessionManagerStub() *sessionManagerStub {
	return &sessionManagerStub{
		created: map[string]*redis.SessionData{},
		ttls:    map[string]time.Duration{},
	}
}

func (s *sessionManagerStub) CreateSession(_ context.Context, id string, data *redis.SessionData, ttl time.Duration) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created[id] = data
	s.ttls[id] = ttl
	return nil
}

func (s *sessionManagerStub) DeleteSession(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}
