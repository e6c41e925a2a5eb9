package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/procura/internal/client/view"
)

func (a *App) getStatus() string {
	id := a.session.Identity()
	if id == nil {
		return ""
	}
	return fmt.Sprintf("(%s %s)", id.Username, id.Role)
}

// Root greets the user, restores or asks for a session, starts the
// auto-refresh and runs the REPL until the user exits.
func (a *App) Root(ctx context.Context) {

	a.println("Welcome to Procura CLI (type 'help' for commands)")

	if a.isLoggedIn() {
		a.router.Navigate(view.Dashboard)
		_ = a.List(ctx, nil)
	} else {
		_ = a.Login(ctx)
	}

	if a.config.RefreshInterval > 0 {
		go a.StartAutoRefresh(ctx, a.config.RefreshInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
