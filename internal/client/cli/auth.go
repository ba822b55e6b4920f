package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/daybookapp/daybook/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account on the server.
//
// On success it prints "Success!" and returns nil. Any I/O or service error
// is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, userName, password); err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// On success the authenticated user id is bound to the sync engine, which
// adopts any entries written before login and schedules them for delivery,
// then the server's entries are pulled into the local store. If the server
// is unreachable the client stays in offline mode; local writing keeps
// working and syncs later.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	// Logging in over an active session unbinds the current identity first,
	// so no delivery can run between installing the new credentials and
	// switching the engine to the new user.
	if a.isLoggedIn() {
		if err := a.engine.SetUserID(ctx, ""); err != nil {
			return err
		}
		a.userName = ""
	}

	userID, err := a.client.Login(ctx, userName, password)
	if err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			log.Printf("Server unavailable, staying offline; local writing keeps working")
			a.setMode(ModeOffline)
		} else {
			log.Printf("Login unsuccessful: %s", err.Error())
		}
		return err
	}

	if err := a.engine.SetUserID(ctx, userID); err != nil {
		return err
	}
	a.userName = userName
	a.setMode(ModeOnline)
	log.Printf("Login successful")

	if err := a.engine.ReconcileRemote(ctx); err != nil {
		log.Printf("Initial pull failed (will retry on sync): %s", err.Error())
	}
	return nil
}

// Logout unbinds the identity. Pending local work is retained and resumes
// after the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.engine.SetUserID(ctx, ""); err != nil {
		return err
	}
	a.userName = ""
	return nil
}
