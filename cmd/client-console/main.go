// Command client-console is the borrower-facing terminal front-end. It talks
// to the loan API (or the loansim stand-in), keeps its session in the shared
// store so every running console of the same profile sees logins and logouts,
// and guards its views the way the browser shell guards routes.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
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
	routeSignup    = "/signup"
	routeDashboard = "/dashboard"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := console.Bootstrap(ctx, "client")
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	if env.Sessions.ExpireIfStale() {
		fmt.Println("previous session expired, please log in again")
	}

	routeGuard := guard.New(env.Sessions, routeLogin, routeSignup, routeDashboard,
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

	borrower := workflow.NewBorrower(env.Client, workflow.NewLoggerNotifier(env.Logger), env.Logger)

	fmt.Printf("Loan Lens client console (%s)\n", env.Cfg.APIBaseURL)
	fmt.Println(`type "help" for commands`)

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", router.Current())
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
		case "signup":
			signup(ctx, env, router, in, args[1:])
		case "login":
			login(ctx, env, router, in, args[1:])
		case "logout":
			if err := env.Sessions.Logout(); err != nil {
				fmt.Println("logout:", err)
			}
		case "me":
			whoami(ctx, env)
		case "ls":
			list(ctx, router, borrower)
		case "apply":
			apply(ctx, router, borrower, in)
		case "pay":
			pay(ctx, router, borrower, args[1:])
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

func printHelp() {
	fmt.Println(`commands:
  signup <name> <email>   create an account and sign in
  login <email>           sign in
  logout                  sign out everywhere
  me                      show the signed-in profile
  ls                      list my applications
  apply                   submit a new application for scoring
  pay <id> [amount] [method]  record a payment (methods: mobile_money, bank_transfer, card)
  quit`)
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func signup(ctx context.Context, env *console.Env, router *console.Router, in *bufio.Scanner, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: signup <name> <email>")
		return
	}
	password := prompt(in, "password")
	sess, err := env.Client.Signup(ctx, api.SignupInput{
		Name:     strings.Join(args[:len(args)-1], " "),
		Email:    args[len(args)-1],
		Password: password,
	})
	if err != nil {
		reportAPIError(err)
		return
	}
	finishLogin(env, router, sess)
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
	finishLogin(env, router, sess)
}

func finishLogin(env *console.Env, router *console.Router, sess session.Session) {
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

func list(ctx context.Context, router *console.Router, borrower *workflow.Borrower) {
	if !requireDashboard(router) {
		return
	}
	if err := borrower.Refresh(ctx); err != nil {
		reportAPIError(err)
		return
	}
	apps := borrower.Cache().Snapshot()
	if len(apps) == 0 {
		fmt.Println("no applications yet")
		return
	}
	for _, app := range apps {
		printApplication(app)
	}
	fmt.Printf("%d applications as of %s\n", len(apps),
		borrower.Cache().FetchedAt().Format("15:04:05"))
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
	if app.AdminNote != "" {
		fmt.Printf("    note: %s\n", app.AdminNote)
	}
}

func apply(ctx context.Context, router *console.Router, borrower *workflow.Borrower, in *bufio.Scanner) {
	if !requireDashboard(router) {
		return
	}
	input := loan.ApplicationInput{}
	var err error
	if input.Amount, err = promptFloat(in, "loan amount"); err != nil {
		fmt.Println(err)
		return
	}
	if input.DurationMonths, err = promptInt(in, "duration (months)"); err != nil {
		fmt.Println(err)
		return
	}
	if input.MonthlyIncome, err = promptFloat(in, "monthly income"); err != nil {
		fmt.Println(err)
		return
	}
	input.CreditHistory = loan.CreditHistory(prompt(in, "credit history (none/fair/good/excellent)"))
	if input.MobileMoney.AverageBalance, err = promptFloat(in, "mobile money average balance"); err != nil {
		fmt.Println(err)
		return
	}
	if input.MobileMoney.TransactionFrequency, err = promptFloat(in, "mobile money transactions per month"); err != nil {
		fmt.Println(err)
		return
	}

	app, err := borrower.Apply(ctx, input)
	if err != nil {
		reportAPIError(err)
		return
	}
	fmt.Println("application submitted:")
	printApplication(app)
}

func pay(ctx context.Context, router *console.Router, borrower *workflow.Borrower, args []string) {
	if !requireDashboard(router) {
		return
	}
	if len(args) < 1 {
		fmt.Println("usage: pay <id> [amount] [method]")
		return
	}
	id := args[0]

	app, err := borrower.OpenPayment(id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotPayable) {
			fmt.Println("this application does not accept payments")
		} else {
			reportAPIError(err)
		}
		return
	}
	defer borrower.ClosePayment()

	amount := ledger.DefaultPaymentAmount(app)
	if len(args) > 1 {
		if amount, err = strconv.ParseFloat(args[1], 64); err != nil {
			fmt.Printf("invalid amount %q\n", args[1])
			return
		}
	}
	method := ledger.MethodMobileMoney
	if len(args) > 2 {
		method = ledger.PaymentMethod(args[2])
	}

	if err := borrower.SubmitPayment(ctx, id, amount, method); err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			fmt.Println("payment amount must be a positive number")
		case errors.Is(err, ledger.ErrExceedsBalance):
			fmt.Printf("payment exceeds the remaining balance of %.2f\n", ledger.RemainingBalance(app))
		case errors.Is(err, ledger.ErrInvalidMethod):
			fmt.Println("unknown payment method (mobile_money, bank_transfer, card)")
		default:
			reportAPIError(err)
		}
		return
	}
	fmt.Printf("payment of %.2f recorded\n", amount)
}

func promptFloat(in *bufio.Scanner, label string) (float64, error) {
	raw := prompt(in, label)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func promptInt(in *bufio.Scanner, label string) (int, error) {
	raw := prompt(in, label)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
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
