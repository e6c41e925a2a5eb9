package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/common"
	"github.com/dmitrijs2005/procura/internal/logging"
	"github.com/google/uuid"
)

const (
	loginPath      = "/accounts/login/"
	requestsPath   = "/requests/"
	defaultTimeout = 30 * time.Second
	maxBodySize    = 10 << 20
)

// HTTPClient implements Client over the procurement REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	authScheme string
	tokens     TokenSource
	logger     logging.Logger

	mu           sync.RWMutex
	unauthorized UnauthorizedHandler
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. It is applied to a copy of the
// *http.Client, so a client passed with WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAuthScheme sets the Authorization scheme. The backend expects "JWT".
func WithAuthScheme(scheme string) Option {
	return func(c *HTTPClient) {
		if scheme != "" {
			c.authScheme = scheme
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *HTTPClient) { c.unauthorized = h }
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", baseURL)
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		authScheme: common.DefaultAuthScheme,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// SetTokenSource and SetUnauthorizedHandler exist because the session store
// needs a client to log in and the client needs the store to read tokens.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *HTTPClient) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = h
}

type call struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	public      bool
}

// authorize is the request interceptor: it attaches the stored access token
// unless the call is public.
func (c *HTTPClient) authorize(ctx context.Context, req *http.Request, public bool) error {
	if public {
		return nil
	}

	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return nil
	}

	token, err := ts.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, c.authScheme+" "+token)
	}
	return nil
}

// intercept is the response interceptor. A 401 on login is a credentials
// failure and is returned as is; anywhere else it means the session is gone.
func (c *HTTPClient) intercept(ctx context.Context, cl call, apiErr *APIError) {
	if apiErr.StatusCode != http.StatusUnauthorized || cl.public {
		return
	}

	c.mu.RLock()
	h := c.unauthorized
	c.mu.RUnlock()
	if h != nil {
		h.HandleUnauthorized(ctx, apiErr)
	}
}

func (c *HTTPClient) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	if err := c.authorize(ctx, req, cl.public); err != nil {
		return err
	}

	log := c.logger.With("request_id", requestID, "method", cl.method, "path", cl.path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn(ctx, "request failed", "error", err)
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	log.Debug(ctx, "request done", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Method:     cl.method,
			Path:       cl.path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
		c.intercept(ctx, cl, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", cl.method, cl.path, err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, public bool) error {
	cl := call{method: method, path: path, public: public}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		cl.body = bytes.NewReader(b)
		cl.contentType = "application/json"
	}
	return c.do(ctx, cl, out)
}

func requestPath(id string, action ...string) string {
	p := requestsPath + url.PathEscape(id) + "/"
	for _, a := range action {
		p += a + "/"
	}
	return p
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	creds := models.Credentials{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, loginPath, creds, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) List(ctx context.Context) ([]models.PurchaseRequest, error) {
	var resp []models.PurchaseRequest
	if err := c.doJSON(ctx, http.MethodGet, requestsPath, nil, &resp, false); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []models.PurchaseRequest{}
	}
	return resp, nil
}

func (c *HTTPClient) Get(ctx context.Context, id string) (*models.PurchaseRequest, error) {
	var resp models.PurchaseRequest
	if err := c.doJSON(ctx, http.MethodGet, requestPath(id), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Create always sends a status; new requests start out pending.
func (c *HTTPClient) Create(ctx context.Context, draft models.CreateDraft) (*models.PurchaseRequest, error) {
	form := newMultipartForm()
	form.field("title", draft.Title)
	form.field("description", draft.Description)
	form.field("amount", draft.Amount)
	form.field("status", strings.ToLower(string(models.StatusPending)))
	if draft.ProformaFile != nil {
		form.file("proforma", *draft.ProformaFile)
	}

	var resp models.PurchaseRequest
	if err := c.doMultipart(ctx, http.MethodPost, requestsPath, form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update sends only the fields that are set.
func (c *HTTPClient) Update(ctx context.Context, id string, draft models.UpdateDraft) (*models.PurchaseRequest, error) {
	form := newMultipartForm()
	form.fieldIfSet("title", draft.Title)
	form.fieldIfSet("description", draft.Description)
	form.fieldIfSet("amount", draft.Amount)
	if draft.ProformaFile != nil {
		form.file("proforma", *draft.ProformaFile)
	}

	var resp models.PurchaseRequest
	if err := c.doMultipart(ctx, http.MethodPut, requestPath(id), form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Approve(ctx context.Context, id string) (*models.ApproveResult, error) {
	var resp models.ApproveResult
	if err := c.doJSON(ctx, http.MethodPatch, requestPath(id, "approve"), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Reject(ctx context.Context, id string) (*models.RejectResult, error) {
	var resp models.RejectResult
	if err := c.doJSON(ctx, http.MethodPatch, requestPath(id, "reject"), nil, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) UploadReceipt(ctx context.Context, id string, receipt models.Attachment) (*models.ReceiptResult, error) {
	form := newMultipartForm()
	form.file("receipt", receipt)

	var resp models.ReceiptResult
	if err := c.doMultipart(ctx, http.MethodPost, requestPath(id, "submit-receipt"), form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) doMultipart(ctx context.Context, method, path string, form *multipartForm, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, call{method: method, path: path, body: body, contentType: contentType}, out)
}

// multipartForm collects parts and reports the first error on encode.
type multipartForm struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *multipartForm) fieldIfSet(name, value string) {
	if value != "" {
		f.field(name, value)
	}
}

func (f *multipartForm) file(name string, a models.Attachment) {
	if f.err != nil {
		return
	}

	src, err := os.Open(a.Path)
	if err != nil {
		f.err = fmt.Errorf("open %s: %w", name, err)
		return
	}
	defer src.Close()

	filename := a.Name
	if filename == "" {
		filename = a.Path
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, filename))
	h.Set("Content-Type", contentType)

	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	if _, err := io.Copy(part, src); err != nil {
		f.err = fmt.Errorf("write %s: %w", name, err)
	}
}

func (f *multipartForm) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.w.FormDataContentType(), nil
}

var _ Client = (*HTTPClient)(nil)

// IsUnavailable reports whether err is a transport level failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
