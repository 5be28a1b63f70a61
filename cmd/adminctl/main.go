package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/minhvu/pushrelay/internal/identity"
)

const usage = `Usage: adminctl <command> [args]

Commands:
  create-account <email> <password>   create an account with the admin claim
  get-account-info <id>               print account metadata and claims
  set-admin-claim <id>                set admin: true on an existing account
  reset-password <id> [password]      set a new password (random if omitted)

A serviceAccountKey.json must be present in the working directory, the
project root, or next to the binary.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	// Credentials are resolved before any provider call; absence is fatal.
	creds, err := identity.DiscoverCredentials()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := identity.NewClient(creds, &http.Client{Timeout: 15 * time.Second})
	ctx := context.Background()

	switch os.Args[1] {
	case "create-account":
		createAccount(ctx, client, os.Args[2:])
	case "get-account-info":
		getAccountInfo(ctx, client, os.Args[2:])
	case "set-admin-claim":
		setAdminClaim(ctx, client, os.Args[2:])
	case "reset-password":
		resetPassword(ctx, client, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// createAccount creates the account and then grants the admin claim. The two
// steps are not transactional: a failure after creation leaves an account
// without the claim, which set-admin-claim can repair by hand.
func createAccount(ctx context.Context, client *identity.Client, args []string) {
	if len(args) != 2 {
		fatal(fmt.Errorf("usage: adminctl create-account <email> <password>"))
	}
	email, password := args[0], args[1]

	fmt.Println("creating account", email)
	account, err := client.CreateAccount(ctx, email, password)
	if err != nil {
		fatal(err)
	}
	fmt.Println("account created id=" + account.ID)

	if err := client.SetAdminClaim(ctx, account.ID); err != nil {
		fatal(fmt.Errorf("account %s created but claim assignment failed: %w", account.ID, err))
	}
	fmt.Println("admin claim set for id=" + account.ID)
	fmt.Println("CREATED_ID:" + account.ID)
}

func getAccountInfo(ctx context.Context, client *identity.Client, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: adminctl get-account-info <id>"))
	}

	account, err := client.GetAccount(ctx, args[0])
	if err != nil {
		fatal(err)
	}
	fmt.Println("ID:", account.ID)
	fmt.Println("Email:", account.Email)
	fmt.Println("EmailVerified:", account.EmailVerified)
	fmt.Println("Disabled:", account.Disabled)
	fmt.Println("CustomClaims:", account.CustomClaims)
}

func setAdminClaim(ctx context.Context, client *identity.Client, args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: adminctl set-admin-claim <id>"))
	}

	if err := client.SetAdminClaim(ctx, args[0]); err != nil {
		fatal(err)
	}
	fmt.Println("admin claim set for id=" + args[0])
}

func resetPassword(ctx context.Context, client *identity.Client, args []string) {
	if len(args) != 1 && len(args) != 2 {
		fatal(fmt.Errorf("usage: adminctl reset-password <id> [password]"))
	}
	id := args[0]

	var password string
	var err error
	if len(args) == 2 {
		password = args[1]
	} else {
		password, err = identity.GeneratePassword()
		if err != nil {
			fatal(err)
		}
	}

	if err := client.UpdatePassword(ctx, id, password); err != nil {
		fatal(err)
	}
	fmt.Println("password updated for id=" + id)
	fmt.Println("NEW_PASSWORD:" + password)
}
