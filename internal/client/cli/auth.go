package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/procura/internal/client/client"
	"github.com/dmitrijs2005/procura/internal/client/format"
	"github.com/dmitrijs2005/procura/internal/client/view"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and opens a session. Any failure is shown
// as a single generic message; the details go to the log.
func (a *App) Login(ctx context.Context) error {
	if id := a.session.Identity(); id != nil {
		a.printf("Already logged in as %s.\n", id.Username)
		return nil
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	id, err := a.session.Login(ctx, username, string(password))
	if err != nil {
		a.logger.Warn(ctx, "login unsuccessful", "username", username, "error", err)
		a.println("Invalid credentials or server error.")
		return err
	}

	a.printf("Welcome, %s (%s).\n", id.Username, id.Role)

	a.resetData()
	a.router.Navigate(view.Dashboard)
	return a.List(ctx, nil)
}

// Logout ends the session and drops every cached request and draft.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Error(ctx, "logout failed", "error", err)
		a.println("Logout failed.")
		return err
	}
	a.form.Reset()
	a.resetData()
	a.router.Navigate(view.Login)
	a.println("Logged out.")
	return nil
}

// Whoami prints the signed-in user and when the access token expires.
func (a *App) Whoami(ctx context.Context) error {
	id := a.session.Identity()
	if id == nil {
		a.println("Not logged in.")
		return nil
	}
	a.printf("%s (%s), id %s\n", id.Username, id.Role, id.ID)

	exp, err := a.session.Expiry(ctx)
	if err != nil {
		a.println("Token expiry: unknown")
		return nil
	}
	a.printf("Token expires: %s\n", format.Date(exp))
	return nil
}

// report prints a short explanation for an error returned by the API.
func (a *App) report(err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		if a.isLoggedIn() {
			a.println("The server rejected your session. Run 'logout' and 'login' again.")
		} else {
			a.println("Session expired. Please log in again.")
		}
	case client.IsUnavailable(err):
		a.println("Server unavailable, try again later.")
	case errors.Is(err, client.ErrForbidden):
		a.println("You are not allowed to do that.")
	case errors.Is(err, client.ErrNotFound):
		a.println("Request not found.")
	}
}
