package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) AccessToken(context.Context) (string, error) { return s.token, s.err }

type countingHandler struct {
	mu    sync.Mutex
	calls []*APIError
}

func (h *countingHandler) HandleUnauthorized(_ context.Context, err *APIError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, err)
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

type captured struct {
	mu      sync.Mutex
	headers []http.Header
}

func (c *captured) add(h http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = append(c.headers, h.Clone())
}

func (c *captured) last() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.headers) == 0 {
		return nil
	}
	return c.headers[len(c.headers)-1]
}

func newBackend(t *testing.T, register func(g *gin.RouterGroup)) (*httptest.Server, *captured) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seen := &captured{}
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		seen.add(c.Request.Header)
		c.Next()
	})
	register(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, seen
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return c
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "localhost:8000"},
		{"ftp", "ftp://example.com"},
		{"no host", "http://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPClient(tt.url)
			require.Error(t, err)
		})
	}
}

func TestWithTimeout_LeavesCallerClientAlone(t *testing.T) {
	tests := []struct {
		name string
		opts func(hc *http.Client) []Option
	}{
		{"client first", func(hc *http.Client) []Option { return []Option{WithHTTPClient(hc), WithTimeout(5 * time.Second)} }},
		{"timeout first", func(hc *http.Client) []Option { return []Option{WithTimeout(5 * time.Second), WithHTTPClient(hc)} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := &http.Client{Timeout: time.Minute}

			c, err := NewHTTPClient("http://localhost:8000/api", tt.opts(shared)...)
			require.NoError(t, err)

			assert.Equal(t, time.Minute, shared.Timeout)
			assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
			assert.NotSame(t, shared, c.httpClient)
		})
	}
}

func TestWithHTTPClient_NoTimeoutKeepsClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c, err := NewHTTPClient("http://localhost:8000/api", WithHTTPClient(shared))
	require.NoError(t, err)
	assert.Same(t, shared, c.httpClient)
}

func TestLogin_NeverSendsAuthorization(t *testing.T) {
	srv, seen := newBackend(t, func(g *gin.RouterGroup) {
		g.POST("/accounts/login/", func(c *gin.Context) {
			var creds models.Credentials
			if err := c.ShouldBindJSON(&creds); err != nil || creds.Username != "alice" || creds.Password != "pw" {
				c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"successMessage": "Login successful",
				"status_code":    200,
				"access":         "acc",
				"refresh":        "ref",
				"user_short_detail": gin.H{
					"id":        "u-1",
					"username":  "alice",
					"user_type": "staff",
				},
			})
		})
	})

	c := newTestClient(t, srv, WithTokenSource(staticTokens{token: "stale"}))

	resp, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc", resp.Access)
	assert.Equal(t, "ref", resp.Refresh)
	assert.Equal(t, "u-1", resp.UserShortDetail.ID)
	assert.Equal(t, "staff", resp.UserShortDetail.UserType)

	h := seen.last()
	assert.Empty(t, h.Get("Authorization"))
	assert.NotEmpty(t, h.Get("X-Request-ID"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestLogin_FailureDoesNotTriggerUnauthorizedHandler(t *testing.T) {
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.POST("/accounts/login/", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		})
	})

	h := &countingHandler{}
	c := newTestClient(t, srv, WithUnauthorizedHandler(h))

	_, err := c.Login(context.Background(), "alice", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No active account found with the given credentials", apiErr.Message)
	assert.Equal(t, 0, h.count())
}

func TestList_AttachesStoredToken(t *testing.T) {
	srv, seen := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/", func(c *gin.Context) {
			c.JSON(http.StatusOK, []gin.H{
				{"id": "a", "title": "Laptop", "amount": "1500.00", "status": "pending", "created_at": "2025-01-02T10:00:00Z"},
				{"id": "b", "title": "Desk", "amount": "300", "status": "approved", "created_at": "2025-01-03T10:00:00Z"},
			})
		})
	})

	c := newTestClient(t, srv, WithTokenSource(staticTokens{token: "tok"}))

	got, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusPending, got[0].Status)
	assert.Equal(t, models.StatusApproved, got[1].Status)

	assert.Equal(t, "JWT tok", seen.last().Get("Authorization"))
}

func TestList_CustomSchemeAndNoTokenNoHeader(t *testing.T) {
	srv, seen := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/", func(c *gin.Context) { c.JSON(http.StatusOK, []gin.H{}) })
	})

	c := newTestClient(t, srv, WithTokenSource(staticTokens{token: "tok"}), WithAuthScheme("Bearer"))
	got, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, "Bearer tok", seen.last().Get("Authorization"))

	c.SetTokenSource(staticTokens{})
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen.last().Get("Authorization"))
}

func TestTokenSourceError_FailsCall(t *testing.T) {
	var hits atomic.Int32
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/", func(c *gin.Context) {
			hits.Add(1)
			c.JSON(http.StatusOK, []gin.H{})
		})
	})

	boom := errors.New("disk gone")
	c := newTestClient(t, srv, WithTokenSource(staticTokens{err: boom}))

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), hits.Load())
}

func TestUnauthorized_InvokesHandlerAndReturnsError(t *testing.T) {
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Given token not valid for any token type"})
		})
	})

	h := &countingHandler{}
	c := newTestClient(t, srv, WithTokenSource(staticTokens{token: "expired"}))
	c.SetUnauthorizedHandler(h)

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 1, h.count())

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, http.MethodGet, h.calls[0].Method)
	assert.Equal(t, "/requests/", h.calls[0].Path)
}

func TestErrors_MapToSentinels(t *testing.T) {
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.PATCH("/requests/:id/approve/", func(c *gin.Context) {
			switch c.Param("id") {
			case "forbidden":
				c.JSON(http.StatusForbidden, gin.H{"errorMessage": "Only managers can approve"})
			case "missing":
				c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			default:
				c.String(http.StatusInternalServerError, "boom")
			}
		})
	})

	h := &countingHandler{}
	c := newTestClient(t, srv, WithUnauthorizedHandler(h))

	_, err := c.Approve(context.Background(), "forbidden")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Only managers can approve")

	_, err = c.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Approve(context.Background(), "other")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)

	assert.Equal(t, 0, h.count())
}

func TestUnavailable(t *testing.T) {
	srv, _ := newBackend(t, func(*gin.RouterGroup) {})
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsUnavailable(err))
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/", func(c *gin.Context) {
			select {
			case <-release:
			case <-c.Request.Context().Done():
			}
			c.JSON(http.StatusOK, []gin.H{})
		})
	})
	defer close(release)

	c := newTestClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.List(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCreate_SendsMultipartWithPendingStatus(t *testing.T) {
	type received struct {
		Fields      map[string][]string
		Filename    string
		ContentType string
		Body        string
	}
	var got received

	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.POST("/requests/", func(c *gin.Context) {
			if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"errorMessage": err.Error()})
				return
			}
			got.Fields = c.Request.MultipartForm.Value
			fh, err := c.FormFile("proforma")
			if err == nil {
				got.Filename = fh.Filename
				got.ContentType = fh.Header.Get("Content-Type")
				f, _ := fh.Open()
				b, _ := io.ReadAll(f)
				_ = f.Close()
				got.Body = string(b)
			}
			c.JSON(http.StatusCreated, gin.H{"id": "new", "title": "Laptop", "amount": "1500.00", "status": "pending"})
		})
	})

	path := writeTempFile(t, "quote.pdf", []byte("%PDF-1.4 quote"))
	c := newTestClient(t, srv, WithTokenSource(staticTokens{token: "tok"}))

	pr, err := c.Create(context.Background(), models.CreateDraft{
		Title:        "Laptop",
		Description:  "A laptop for the new hire",
		Amount:       "1500.00",
		ProformaFile: &models.Attachment{Path: path, Name: "quote.pdf", ContentType: "application/pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", pr.ID)

	want := received{
		Fields: map[string][]string{
			"title":       {"Laptop"},
			"description": {"A laptop for the new hire"},
			"amount":      {"1500.00"},
			"status":      {"pending"},
		},
		Filename:    "quote.pdf",
		ContentType: "application/pdf",
		Body:        "%PDF-1.4 quote",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("create payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_MissingFileFailsBeforeSending(t *testing.T) {
	var hits atomic.Int32
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.POST("/requests/", func(c *gin.Context) {
			hits.Add(1)
			c.Status(http.StatusCreated)
		})
	})

	c := newTestClient(t, srv)
	_, err := c.Create(context.Background(), models.CreateDraft{
		Title:        "Laptop",
		Description:  "A laptop for the new hire",
		Amount:       "10",
		ProformaFile: &models.Attachment{Path: filepath.Join(t.TempDir(), "missing.pdf")},
	})
	require.Error(t, err)
	assert.Equal(t, int32(0), hits.Load())
}

func TestUpdate_SendsOnlySetFields(t *testing.T) {
	var fields map[string][]string
	var method string
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.PUT("/requests/:id/", func(c *gin.Context) {
			method = c.Request.Method
			if err := c.Request.ParseMultipartForm(1 << 20); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"errorMessage": err.Error()})
				return
			}
			fields = c.Request.MultipartForm.Value
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "title": "Renamed", "status": "pending"})
		})
	})

	c := newTestClient(t, srv)
	pr, err := c.Update(context.Background(), "r-1", models.UpdateDraft{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "r-1", pr.ID)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, map[string][]string{"title": {"Renamed"}}, fields)
}

func TestApprove_DecodesPurchaseOrder(t *testing.T) {
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.PATCH("/requests/:id/approve/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"successMessage": "Request approved",
				"status_code":    200,
				"po_generated":   true,
				"po_file":        "http://files/po.pdf",
				"po_data": gin.H{
					"vendor": gin.H{"name": "ACME"},
					"notes":  "net 30",
				},
			})
		})
	})

	c := newTestClient(t, srv)
	res, err := c.Approve(context.Background(), "r-1")
	require.NoError(t, err)
	assert.True(t, res.POGenerated)
	require.NotNil(t, res.POFile)
	assert.Equal(t, "http://files/po.pdf", *res.POFile)
	require.NotNil(t, res.POData)
	assert.Equal(t, "ACME", res.POData.Vendor.Name)
}

func TestReject(t *testing.T) {
	var path string
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.PATCH("/requests/:id/reject/", func(c *gin.Context) {
			path = c.Request.URL.Path
			c.JSON(http.StatusOK, gin.H{"successMessage": "Request rejected", "status_code": 200})
		})
	})

	c := newTestClient(t, srv)
	res, err := c.Reject(context.Background(), "r-9")
	require.NoError(t, err)
	assert.Equal(t, "Request rejected", res.SuccessMessage)
	assert.Equal(t, "/api/requests/r-9/reject/", path)
}

func TestUploadReceipt(t *testing.T) {
	var filename string
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.POST("/requests/:id/submit-receipt/", func(c *gin.Context) {
			fh, err := c.FormFile("receipt")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "receipt missing"})
				return
			}
			filename = fh.Filename
			c.JSON(http.StatusOK, gin.H{
				"successMessage":    "Receipt submitted",
				"status_code":       200,
				"validation_status": "invalid",
				"validation_result": gin.H{
					"is_valid":         false,
					"confidence_score": 0.4,
					"discrepancies":    []gin.H{{"field": "total", "issue": "mismatch"}},
				},
			})
		})
	})

	path := writeTempFile(t, "receipt.png", []byte("\x89PNG\r\n\x1a\n"))
	c := newTestClient(t, srv)

	res, err := c.UploadReceipt(context.Background(), "r-1", models.Attachment{Path: path, Name: "receipt.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", filename)
	assert.Equal(t, models.ValidationInvalid, res.ValidationStatus)
	require.NotNil(t, res.ValidationResult)
	assert.Len(t, res.ValidationResult.Discrepancies, 1)
}

func TestGet_EscapesID(t *testing.T) {
	var rawPath string
	srv, _ := newBackend(t, func(g *gin.RouterGroup) {
		g.GET("/requests/:id/", func(c *gin.Context) {
			rawPath = c.Request.URL.EscapedPath()
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": "weird"})
		})
	})

	c := newTestClient(t, srv)
	pr, err := c.Get(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "/api/requests/a%20b/", rawPath)
	assert.Equal(t, models.StatusPending, pr.Status.Normalize())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"errorMessage", `{"errorMessage":"nope"}`, "nope"},
		{"detail", `{"detail":"Not found."}`, "Not found."},
		{"field errors", `{"title":["too short"],"amount":["invalid"]}`, "amount: invalid; title: too short"},
		{"plain text", "  gateway down  ", "gateway down"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage([]byte(tt.body)))
		})
	}
}

func TestErrorMessage_TruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes; one leading ASCII byte puts a rune across the cap.
	body := `{"detail":"x` + strings.Repeat("é", maxErrorMessage) + `"}`

	got := errorMessage([]byte(body))

	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxErrorMessage+len("..."))
	assert.Equal(t, maxErrorMessage-1, len(strings.TrimSuffix(got, "...")))
}
