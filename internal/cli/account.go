package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quiz-client/internal/apperr"
	"quiz-client/internal/auth"
	"quiz-client/internal/storage"
)

const notLoggedIn = "You are not logged in. Type 'login' to sign in."

// restoreLogin signs in with a remembered token while it is still valid.
func (a *App) restoreLogin(ctx context.Context) {
	creds, err := a.deps.Store.RecalledCredentials(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("failed to read remembered credentials: %v", err)
		}
		return
	}

	identity, err := auth.ParseIdentity(creds.Token)
	if err != nil || identity.Expired(time.Now()) {
		fmt.Fprintf(a.out, "Remembered login for %s has expired. Please log in again.\n", creds.Email)
		if err := a.deps.Store.ForgetCredentials(ctx); err != nil {
			log.Printf("failed to forget credentials: %v", err)
		}
		return
	}

	a.signIn(identity)
	fmt.Fprintf(a.out, "Signed in as %s.\n", creds.Email)
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usage("login [email]")
	}

	email := ""
	if len(args) == 1 {
		email = args[0]
	} else {
		line, err := promptLine(a.reader, a.out, "Email: ")
		if err != nil {
			return err
		}
		email = line
	}
	password, err := promptLine(a.reader, a.out, "Password: ")
	if err != nil {
		return err
	}

	identity, err := a.deps.Provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	remember, err := promptYesNo(a.reader, a.out, "Remember me on this device? (yes/no): ")
	if err != nil {
		return err
	}

	a.signIn(identity)
	if remember {
		err = a.deps.Store.RememberCredentials(ctx, storage.Credentials{Email: identity.Email, Token: identity.Token})
	} else {
		err = a.deps.Store.ForgetCredentials(ctx)
	}
	if err != nil {
		log.Printf("failed to update remembered credentials: %v", err)
	}

	if profile, err := a.deps.Backend.GetProfile(ctx); err == nil {
		if err := a.deps.Store.SaveProfile(ctx, profile); err != nil {
			log.Printf("failed to cache profile: %v", err)
		}
		fmt.Fprintf(a.out, "Welcome, %s (class %s).\n", profile.Name, profile.Class)
	} else {
		fmt.Fprintf(a.out, "Signed in as %s.\n", strings.TrimSpace(identity.Email))
	}
	return nil
}

func (a *App) signIn(identity auth.Identity) {
	a.deps.Session.SignIn(identity)
	a.deps.Guard.Arm()
	a.loggedOut.Store(false)
}

func (a *App) logout(ctx context.Context) error {
	proceed, err := a.confirmLeave("Log out anyway?")
	if err != nil || !proceed {
		return err
	}

	a.deps.Guard.Disarm()
	a.deps.Controller.Reset()
	a.deps.Session.SignOut()
	if err := a.deps.Store.ClearUser(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) showProfile(ctx context.Context) error {
	profile, err := a.deps.Backend.GetProfile(ctx)
	if err != nil {
		cached, cacheErr := a.deps.Store.LoadProfile(ctx)
		if cacheErr != nil || errors.Is(err, apperr.ErrAuth) {
			return err
		}
		fmt.Fprintln(a.out, "(offline, showing cached profile)")
		profile = cached
	} else if err := a.deps.Store.SaveProfile(ctx, profile); err != nil {
		log.Printf("failed to cache profile: %v", err)
	}

	fmt.Fprintf(a.out, "Name:  %s\nEmail: %s\nClass: %s\nRole:  %s\n", profile.Name, profile.Email, profile.Class, profile.Role)
	return nil
}
