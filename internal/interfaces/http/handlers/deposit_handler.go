package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"qomex.backend/internal/domain/entities"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/internal/interfaces/http/response"
)

var offeredFormats = []string{gin.MIMEHTML, gin.MIMEJSON}

// claim outcomes that are not ClaimStatus values
const (
	claimUnauthorized = "unauthorized"
	claimInvalid      = "invalid"
)

var claimMessages = map[string]string{
	string(entities.ClaimPending):  "The broker has not reported a trader ID for your account yet. Please try again in a few minutes.",
	string(entities.ClaimMismatch): "This trader ID does not match your account.",
	claimUnauthorized:              "Please sign in first.",
	claimInvalid:                   "Enter your trader ID.",
}

// DepositHandler serves the deposit gate and trader-id verification
type DepositHandler struct {
	deposits DepositService
	cookies  CookieConfig
}

// NewDepositHandler creates a new deposit handler
func NewDepositHandler(deposits DepositService, cookies CookieConfig) *DepositHandler {
	return &DepositHandler{
		deposits: deposits,
		cookies:  cookies,
	}
}

// DepositCheck classifies a trader id against the deposit threshold
// GET /deposit-check?trader_id=
func (h *DepositHandler) DepositCheck(c *gin.Context) {
	traderID := strings.TrimSpace(c.Query("trader_id"))
	if traderID == "" {
		traderID, _ = c.Cookie(middleware.TraderIDCookie)
	}

	check, err := h.deposits.Check(c.Request.Context(), traderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := pageData(c, "Deposit check")
	data["Check"] = check
	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  offeredFormats,
		HTMLName: "deposit_check.html",
		HTMLData: data,
		JSONData: check,
	})
}

// CheckPage renders the trader-id form
// GET /check
func (h *DepositHandler) CheckPage(c *gin.Context) {
	traderID, _ := c.Cookie(middleware.TraderIDCookie)
	h.renderClaim(c, http.StatusOK, "", traderID)
}

// VerifyClaim matches a submitted trader id against the one the broker reported
// POST /check
func (h *DepositHandler) VerifyClaim(c *gin.Context) {
	traderID := strings.TrimSpace(c.PostForm("trader_id"))

	userID, ok := middleware.GetUserID(c)
	if !ok {
		h.renderClaim(c, http.StatusUnauthorized, claimUnauthorized, traderID)
		return
	}
	if traderID == "" {
		h.renderClaim(c, http.StatusBadRequest, claimInvalid, traderID)
		return
	}

	result, err := h.deposits.VerifyClaim(c.Request.Context(), userID, traderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Status != entities.ClaimMatched {
		h.renderClaim(c, http.StatusOK, string(result.Status), traderID)
		return
	}

	middleware.SetCookie(c, middleware.TraderIDCookie, traderID, 0, false, h.cookies.Secure)
	c.Redirect(http.StatusFound, "/deposit-check?trader_id="+url.QueryEscape(traderID))
}

func (h *DepositHandler) renderClaim(c *gin.Context, status int, result, traderID string) {
	data := pageData(c, "Verify trader ID")
	data["Result"] = result
	data["Message"] = claimMessages[result]
	data["TraderID"] = traderID

	c.Negotiate(status, gin.Negotiate{
		Offered:  offeredFormats,
		HTMLName: "check.html",
		HTMLData: data,
		JSONData: gin.H{
			"result":    result,
			"trader_id": traderID,
			"message":   claimMessages[result],
		},
	})
}
