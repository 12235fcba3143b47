package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"expensetracker/internal/session"
	"expensetracker/internal/workflow"
	"expensetracker/pkg/apiclient"
)

const defaultAPIURL = "http://localhost:8000"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [flags]

Commands:
  register        Create a new account
  login           Log in and save the session
  logout          Clear the saved session
  whoami          Show the logged-in user
  projects        List your projects with total expenses
  create-project  Create a project (you become its admin)
  members         List members of a project
  add-member      Assign a user to a project
  expenses        List expenses, optionally for one project
  add-expense     Submit a new expense
  set-status      Update an expense status (project admins only)
  reimburse-qr    Generate a PromptPay QR to reimburse an expense

The API base URL is taken from EXPENSE_TRACKER_API (default %s).
`, os.Args[0], defaultAPIURL)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	apiURL := os.Getenv("EXPENSE_TRACKER_API")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	client := apiclient.NewClient(apiURL)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "register":
		err = cmdRegister(ctx, client, os.Args[2:])
	case "login":
		err = cmdLogin(ctx, client, os.Args[2:])
	case "logout":
		err = session.Clear()
		if err == nil {
			fmt.Println("Logged out.")
		}
	case "whoami":
		err = cmdWhoami()
	case "projects":
		err = cmdProjects(ctx, client)
	case "create-project":
		err = cmdCreateProject(ctx, client, os.Args[2:])
	case "members":
		err = cmdMembers(ctx, client, os.Args[2:])
	case "add-member":
		err = cmdAddMember(ctx, client, os.Args[2:])
	case "expenses":
		err = cmdExpenses(ctx, client, os.Args[2:])
	case "add-expense":
		err = cmdAddExpense(ctx, client, os.Args[2:])
	case "set-status":
		err = cmdSetStatus(ctx, client, os.Args[2:])
	case "reimburse-qr":
		err = cmdReimburseQR(ctx, client, os.Args[2:])
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManager builds a workflow manager from the saved session and loads the
// current project and expense lists.
func loadManager(ctx context.Context, client *apiclient.Client) (*workflow.Manager, error) {
	sess, err := session.Load()
	if err != nil {
		return nil, err
	}
	mgr := workflow.NewManager(client, sess)
	if err := mgr.Refresh(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}

func cmdRegister(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Your display name")
	email := fs.String("email", "", "Your email address")
	password := fs.String("password", "", "Your password")
	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("register requires -name, -email and -password")
	}

	user, err := client.Register(ctx, *name, *email, *password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("Registered %s <%s> (id %d). Now run: %s login -email %s\n",
		user.Name, user.Email, user.ID, os.Args[0], user.Email)
	return nil
}

func cmdLogin(ctx context.Context, client *apiclient.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Your email address")
	password := fs.String("password", "", "Your password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	token, err := client.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Resolve identity once at entry; everything downstream gets it from
	// the session instead of re-deriving it per call.
	user, err := client.GetUserByEmail(ctx, *email)
	if err != nil {
		return fmt.Errorf("failed to resolve user after login: %w", err)
	}

	sess := session.Session{UserID: user.ID, Name: user.Name, Email: user.Email, Token: token}
	if err := session.Save(sess); err != nil {
		return err
	}
	fmt.Printf("Welcome %s, you are logged in.\n", user.Name)
	return nil
}

func cmdWhoami() error {
	sess, err := session.Load()
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> (id %d)\n", sess.Name, sess.Email, sess.UserID)
	return nil
}
