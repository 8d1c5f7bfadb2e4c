package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"qomex.backend/internal/interfaces/http/response"
)

// maxPostbackBody bounds how much of a postback body is read
const maxPostbackBody = 64 << 10

// PostbackHandler handles broker postbacks
type PostbackHandler struct {
	postbackService PostbackService
}

// NewPostbackHandler creates a new postback handler
func NewPostbackHandler(postbackService PostbackService) *PostbackHandler {
	return &PostbackHandler{postbackService: postbackService}
}

// Handle receives a broker callback
// GET|POST /postback
func (h *PostbackHandler) Handle(c *gin.Context) {
	params := collectPostbackParams(c)

	result, err := h.postbackService.Receive(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// collectPostbackParams merges the query string with a POST body, JSON or
// form. Body values win. An unreadable body is ignored.
func collectPostbackParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return params
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if strings.Contains(contentType, "application/json") {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPostbackBody))
		if err != nil {
			return params
		}
		for key, value := range decodeJSONObject(body) {
			params[key] = value
		}
		return params
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPostbackBody)
	if err := c.Request.ParseForm(); err != nil {
		return params
	}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// decodeJSONObject flattens a JSON object into strings. Anything that is not
// an object yields nil.
func decodeJSONObject(body []byte) map[string]string {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil
	}

	out := make(map[string]string, len(obj))
	for key, value := range obj {
		out[key] = stringifyJSON(value)
	}
	return out
}

func stringifyJSON(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
