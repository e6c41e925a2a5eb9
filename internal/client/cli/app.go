package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/procura/internal/client/client"
	"github.com/dmitrijs2005/procura/internal/client/config"
	"github.com/dmitrijs2005/procura/internal/client/dashboard"
	"github.com/dmitrijs2005/procura/internal/client/forms"
	"github.com/dmitrijs2005/procura/internal/client/models"
	"github.com/dmitrijs2005/procura/internal/client/services"
	"github.com/dmitrijs2005/procura/internal/client/session"
	"github.com/dmitrijs2005/procura/internal/client/view"
	"github.com/dmitrijs2005/procura/internal/filex"
	"github.com/dmitrijs2005/procura/internal/logging"
)

// Session is the part of the session store the CLI drives.
type Session interface {
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Logout(ctx context.Context) error
	Identity() *models.Identity
	IsAuthenticated() bool
	IsFinance() bool
	Expiry(ctx context.Context) (time.Time, error)
}

type App struct {
	config    *config.Config
	session   Session
	api       client.Client
	router    *view.Router
	requests  services.RequestService
	form      *forms.CreateRequestForm
	selection *dashboard.Selection
	dataOpts  []dashboard.Option
	logger    logging.Logger
	reader    *bufio.Reader
	out       io.Writer
	now       func() time.Time
	db        *sql.DB

	mu   sync.RWMutex
	data *dashboard.Data
}

// NewApp opens the session database, builds the API client and the session
// store, and wires them to each other and to the view router.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DBPath); err != nil {
		return nil, fmt.Errorf("prepare session database: %w", err)
	}

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DBPath, "error", err)
		return nil, err
	}

	api, err := client.NewHTTPClient(c.APIURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithAuthScheme(c.AuthScheme),
		client.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	router := view.NewRouter(view.Login)
	store, err := session.NewStore(ctx, db, api,
		session.WithNavigator(router),
		session.WithLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api.SetTokenSource(store)
	api.SetUnauthorizedHandler(store)
	router.Guard(store.IsAuthenticated)

	var opts []dashboard.Option
	opts = append(opts, dashboard.WithLogger(logger))
	if c.SequenceGuard {
		opts = append(opts, dashboard.WithSequenceGuard())
	}

	a := newApp(store, api, router, logger, bufio.NewReader(os.Stdin), os.Stdout, opts...)
	a.config = c
	a.db = db
	return a, nil
}

func newApp(s Session, api client.Client, router *view.Router, logger logging.Logger, r *bufio.Reader, w io.Writer, opts ...dashboard.Option) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &App{
		config:    &config.Config{},
		session:   s,
		api:       api,
		router:    router,
		form:      forms.NewCreateRequestForm(api),
		selection: dashboard.NewSelection(),
		dataOpts:  opts,
		logger:    logger,
		reader:    r,
		out:       w,
		now:       time.Now,
	}
	a.data = dashboard.New(api, opts...)
	a.requests = services.NewRequestService(api, refreshFunc(a.refreshQuietly), logger)

	router.OnChange(func(v view.View) {
		if v == view.Login && !s.IsAuthenticated() {
			a.resetData()
		}
	})
	return a
}

type refreshFunc func(ctx context.Context) error

func (f refreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

func (a *App) currentData() *dashboard.Data {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data
}

// resetData drops the cached list. The next dashboard visit fetches anew.
func (a *App) resetData() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = dashboard.New(a.api, a.dataOpts...)
}

func (a *App) refreshQuietly(ctx context.Context) error {
	return a.currentData().Refresh(ctx)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Run starts the interactive loop and closes the session database when it
// returns.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// StartAutoRefresh quietly reloads the request list every interval while the
// dashboard is on screen. It returns when ctx is done.
func (a *App) StartAutoRefresh(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() || a.router.Current() != view.Dashboard {
				continue
			}

			timeout := a.config.RequestTimeout
			if timeout <= 0 {
				timeout = interval
			}
			rctx, cancel := context.WithTimeout(ctx, timeout)
			err := a.refreshQuietly(rctx)
			cancel()

			if err != nil {
				a.logger.Debug(ctx, "auto refresh failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}
