package handlers

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/internal/interfaces/http/response"
	"qomex.backend/pkg/logger"
)

// public pages listed in sitemap.xml
var sitemapPaths = []string{"/", "/auth", "/go-to-signals", "/privacy.html", "/terms.html", "/cookie.html"}

// PageConfig holds what the rendered pages need from configuration
type PageConfig struct {
	BaseURL    string
	BrokerURL  string
	MinDeposit decimal.Decimal
	Cookies    CookieConfig
}

// PageHandler serves the server-rendered site
type PageHandler struct {
	users      AuthService
	reconciler Reconciler
	deposits   DepositService
	cfg        PageConfig
}

// NewPageHandler creates a new page handler
func NewPageHandler(users AuthService, reconciler Reconciler, deposits DepositService, cfg PageConfig) *PageHandler {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PageHandler{
		users:      users,
		reconciler: reconciler,
		deposits:   deposits,
		cfg:        cfg,
	}
}

// Index renders the landing page
// GET /
func (h *PageHandler) Index(c *gin.Context) {
	data := pageData(c, "")
	data["MinDeposit"] = h.cfg.MinDeposit
	c.HTML(http.StatusOK, "index.html", data)
}

// Static renders a page that needs no data
func (h *PageHandler) Static(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, pageData(c, title))
	}
}

// Profile shows the signed-in user after replaying pending postbacks
// GET /profile
func (h *PageHandler) Profile(c *gin.Context) {
	user, err := h.currentUser(c, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	if user == nil {
		c.Redirect(http.StatusFound, "/auth")
		return
	}

	data := pageData(c, "Profile")
	data["User"] = user
	data["Check"] = h.deposits.CheckUser(user)
	c.HTML(http.StatusOK, "profile.html", data)
}

// GoToSignals routes the visitor to the next step of the funnel
// GET /go-to-signals
func (h *PageHandler) GoToSignals(c *gin.Context) {
	user, err := h.currentUser(c, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	if next := h.nextStep(user); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// Dashboard renders the signals page for users who passed the deposit gate
// GET /dashboard
func (h *PageHandler) Dashboard(c *gin.Context) {
	user, err := h.currentUser(c, false)
	if err != nil {
		response.Error(c, err)
		return
	}
	if next := h.nextStep(user); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}

	data := pageData(c, "Signals")
	data["User"] = user
	c.HTML(http.StatusOK, "dashboard.html", data)
}

// GoBroker sends the visitor to the broker's referral link tagged with their click id
// GET /go-broker
func (h *PageHandler) GoBroker(c *gin.Context) {
	clickID := middleware.GetClickID(c)

	target, err := brokerLink(h.cfg.BrokerURL, clickID)
	if err != nil {
		logger.Error(c.Request.Context(), "Invalid broker url", zap.String("broker_url", h.cfg.BrokerURL), zap.Error(err))
		response.Error(c, domainerrors.InternalServerError("broker link unavailable"))
		return
	}

	if clickID != "" {
		middleware.SetCookie(c, middleware.ClickIDCookie, clickID, int(h.cfg.Cookies.ClickIDTTL.Seconds()), false, h.cfg.Cookies.Secure)
	}
	c.Redirect(http.StatusFound, target)
}

// Robots serves robots.txt
// GET /robots.txt
func (h *PageHandler) Robots(c *gin.Context) {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /profile\nDisallow: /auth/reset\nSitemap: %s/sitemap.xml", h.cfg.BaseURL)
	c.String(http.StatusOK, body)
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap serves sitemap.xml
// GET /sitemap.xml
func (h *PageHandler) Sitemap(c *gin.Context) {
	set := sitemapURLSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range sitemapPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.cfg.BaseURL + p})
	}

	body, err := xml.Marshal(set)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// nextStep returns where an unqualified visitor must go, or "" when the
// dashboard is open to them.
func (h *PageHandler) nextStep(user *entities.User) string {
	if user == nil {
		return "/auth"
	}
	if !user.HasTraderID() {
		return "/check"
	}
	if !h.deposits.CheckUser(user).Passed() {
		return "/deposit-check?trader_id=" + url.QueryEscape(user.TraderID.String)
	}
	return ""
}

// currentUser resolves the session user. A session pointing at a deleted
// user counts as anonymous.
func (h *PageHandler) currentUser(c *gin.Context, reconcile bool) (*entities.User, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, nil
	}
	ctx := c.Request.Context()

	if reconcile && h.reconciler != nil {
		attachPending(ctx, h.reconciler, userID)
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// attachPending replays pending postbacks. Failures are retried on the next visit.
func attachPending(ctx context.Context, reconciler Reconciler, userID int64) {
	n, err := reconciler.AttachPending(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "Pending postbacks not attached", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "Pending postbacks attached on visit", zap.Int64("user_id", userID), zap.Int("count", n))
	}
}

func brokerLink(base, clickID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("broker url %q is not absolute", base)
	}
	if clickID != "" {
		q := u.Query()
		q.Set("click_id", clickID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// pageData seeds the template data shared by every page
func pageData(c *gin.Context, title string) gin.H {
	_, loggedIn := middleware.GetUserID(c)
	return gin.H{
		"Title":    title,
		"LoggedIn": loggedIn,
	}
}
