// Command admin-console is the reviewer-facing terminal front-end. It lists
// every application, opens one decision surface at a time, and refetches the
// collection after each accepted decision so the view always reflects what
// the remote system stored.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/loan-lens/loanlens/internal/api"
	"github.com/loan-lens/loanlens/internal/console"
	"github.com/loan-lens/loanlens/internal/guard"
	"github.com/loan-lens/loanlens/internal/ledger"
	"github.com/loan-lens/loanlens/internal/loan"
	"github.com/loan-lens/loanlens/internal/session"
	"github.com/loan-lens/loanlens/internal/workflow"
)

const (
	routeLogin     = "/login"
	routeDashboard = "/dashboard"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := console.Bootstrap(ctx, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	if env.Sessions.ExpireIfStale() {
		fmt.Println("previous session expired, please log in again")
	}

	// No signup route; reviewer accounts are provisioned elsewhere.
	routeGuard := guard.New(env.Sessions, routeLogin, "", routeDashboard,
		[]string{routeDashboard})
	router := console.NewRouter(routeGuard, startRoute(env.Sessions), func(from, to string) {
		fmt.Printf("\n-> %s\n", to)
	})
	release := router.Bind(env.Sessions)
	defer release()

	go func() {
		if err := env.Sessions.Watch(ctx); err != nil && ctx.Err() == nil {
			env.Logger.Warn("session watch stopped", "error", err)
		}
	}()

	reviewer := workflow.NewReviewer(env.Client, workflow.NewLoggerNotifier(env.Logger), env.Logger)

	fmt.Printf("Loan Lens admin console (%s)\n", env.Cfg.APIBaseURL)
	fmt.Println(`type "help" for commands`)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", promptLabel(router, reviewer))
		if !in.Scan() {
			return
		}
		args := strings.Fields(in.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp()
		case "quit", "exit":
			return
		case "login":
			login(ctx, env, router, in, args[1:])
		case "logout":
			if err := env.Sessions.Logout(); err != nil {
				fmt.Println("logout:", err)
			}
		case "me":
			whoami(ctx, env)
		case "ls":
			list(ctx, router, reviewer)
		case "open":
			open(ctx, router, reviewer, args[1:])
		case "close":
			reviewer.CloseEdit()
		case "status":
			decide(ctx, router, reviewer, args[1:])
		default:
			fmt.Printf("unknown command %q\n", args[0])
		}
	}
}

func startRoute(sessions *session.Manager) string {
	if sessions.IsAuthenticated() {
		return routeDashboard
	}
	return routeLogin
}

func promptLabel(router *console.Router, reviewer *workflow.Reviewer) string {
	if id, open := reviewer.Editing(); open {
		return fmt.Sprintf("%s %s", router.Current(), shortID(id))
	}
	return router.Current()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printHelp() {
	fmt.Printf(`commands:
  login <email>           sign in
  logout                  sign out everywhere
  me                      show the signed-in profile
  ls                      list all applications
  open <id>               open one application for review
  status <decision> [note...]  set the opened application's status
                          (decisions: %s)
  close                   close the review surface without deciding
  quit
`, decisionList())
}

func decisionList() string {
	names := make([]string, 0, len(loan.AdminDecisions()))
	for _, d := range loan.AdminDecisions() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func login(ctx context.Context, env *console.Env, router *console.Router, in *bufio.Scanner, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: login <email>")
		return
	}
	password := prompt(in, "password")
	sess, err := env.Client.Login(ctx, api.Credentials{Email: args[0], Password: password})
	if err != nil {
		reportAPIError(err)
		return
	}
	if err := env.Sessions.Establish(sess); err != nil {
		fmt.Println("save session:", err)
		return
	}
	fmt.Printf("signed in as %s\n", sess.UserName)
	router.Navigate(routeDashboard)
}

func whoami(ctx context.Context, env *console.Env) {
	user, err := env.Client.Me(ctx)
	if err != nil {
		reportAPIError(err)
		return
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
}

func requireDashboard(router *console.Router) bool {
	if router.Navigate(routeDashboard) != routeDashboard {
		fmt.Println("please log in first")
		return false
	}
	return true
}

func list(ctx context.Context, router *console.Router, reviewer *workflow.Reviewer) {
	if !requireDashboard(router) {
		return
	}
	if err := reviewer.Refresh(ctx); err != nil {
		reportAPIError(err)
		return
	}
	apps := reviewer.Cache().Snapshot()
	if len(apps) == 0 {
		fmt.Println("no applications")
		return
	}
	for _, app := range apps {
		printApplication(app)
	}
	fmt.Printf("%d applications as of %s\n", len(apps),
		reviewer.Cache().FetchedAt().Format("15:04:05"))
}

// printApplication renders the decision and the derived payment state as
// separate columns instead of the overloaded wire status.
func printApplication(app loan.Application) {
	fmt.Printf("%s  %-9s %-8s  amount %.2f  paid %.2f  remaining %.2f",
		app.ID, app.Decision(), ledger.PaymentStateOf(app),
		app.Amount, app.TotalPaid, ledger.RemainingBalance(app))
	if app.RiskScore != nil {
		fmt.Printf("  risk %.3f (%s)", *app.RiskScore, app.Recommendation)
	}
	fmt.Println()
}

func open(ctx context.Context, router *console.Router, reviewer *workflow.Reviewer, args []string) {
	if !requireDashboard(router) {
		return
	}
	if len(args) != 1 {
		fmt.Println("usage: open <id>")
		return
	}
	if !reviewer.Cache().Loaded() {
		if err := reviewer.Refresh(ctx); err != nil {
			reportAPIError(err)
			return
		}
	}
	if err := reviewer.OpenEdit(args[0]); err != nil {
		if errors.Is(err, workflow.ErrEditSurfaceOpen) {
			fmt.Println("another application is open, close it first")
		} else {
			fmt.Println(err)
		}
		return
	}
	app, _ := reviewer.Cache().Get(args[0])
	printApplication(app)
	if app.AdminNote != "" {
		fmt.Printf("    note: %s\n", app.AdminNote)
	}
	for _, change := range app.StatusHistory {
		fmt.Printf("    %s  %s\n", change.ChangedAt.Format("2006-01-02 15:04"), change.Status)
	}
}

func decide(ctx context.Context, router *console.Router, reviewer *workflow.Reviewer, args []string) {
	if !requireDashboard(router) {
		return
	}
	id, isOpen := reviewer.Editing()
	if !isOpen {
		fmt.Println("open an application first")
		return
	}
	if len(args) < 1 {
		fmt.Println("usage: status <decision> [note...]")
		return
	}
	decision := loan.AdminDecision(args[0])
	note := strings.Join(args[1:], " ")

	if err := reviewer.UpdateStatus(ctx, id, decision, note); err != nil {
		switch {
		case errors.Is(err, workflow.ErrInvalidDecision):
			fmt.Printf("decisions are: %s\n", decisionList())
		case errors.Is(err, workflow.ErrSubmissionInFlight):
			fmt.Println("a submission is already in flight")
		default:
			reportAPIError(err)
		}
		return
	}
	fmt.Printf("application %s is now %s\n", shortID(id), decision)
}

func reportAPIError(err error) {
	var serverErr *api.ServerError
	switch {
	case errors.Is(err, api.ErrAuthMissing):
		fmt.Println("not signed in")
	case errors.Is(err, api.ErrNetworkUnreachable):
		fmt.Println("cannot reach the loan API, check LOANLENS_API_URL")
	case errors.As(err, &serverErr):
		fmt.Printf("server rejected the request: %s\n", serverErr.Message)
	default:
		fmt.Println(err)
	}
}
