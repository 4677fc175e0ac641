// cmd/cli/main.go

// GoonPay 的終端機介面。以單一行指令操作同一個記憶體帳本：
//
//	signup <username> [email]    註冊（接著輸入兩次密碼）
//	login <username>             登入（接著輸入密碼）
//	logout                       登出
//	send <recipient> <amount> [note...]
//	balance | history | profile | help | quit
//
// 每個指令輸出恰好一行 "OK: ..." 或 "Error: ..."。
// 工作階段只記住目前帳戶 ID，餘額每次都向帳本重新讀取。

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"

	"goonpay/internal/config"
	"goonpay/internal/ledger"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("goonpay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noDemo := fs.Bool("no-demo", false, "Do not seed the demo account")
	verbose := fs.Bool("v", false, "Log ledger events to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = cfg.LogLevel
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	eng := ledger.NewEngine(nil, ledger.WithPolicy(cfg.Policy), ledger.WithLogger(logger))
	if cfg.SeedDemo && !*noDemo {
		if _, err := eng.SeedDemo(cfg.DemoUsername, cfg.DemoEmail, cfg.DemoPassword); err != nil {
			return fmt.Errorf("seed demo account: %w", err)
		}
	}

	s := &session{
		eng:    eng,
		in:     bufio.NewScanner(stdin),
		stdin:  stdin,
		out:    stdout,
		prompt: "goonpay> ",
	}
	fmt.Fprintln(stdout, "GoonPay - type 'help' for commands")
	return s.loop()
}

// session 為一次終端機工作階段。
type session struct {
	eng    *ledger.Engine
	in     *bufio.Scanner
	stdin  io.Reader
	out    io.Writer
	prompt string

	// current 為已登入帳戶的 ID；空字串表示未登入。
	current string
}

// errQuit 由 quit 指令回傳以結束迴圈。
var errQuit = errors.New("quit")

// errNotLoggedIn 為需要登入的指令在未登入時回傳。
var errNotLoggedIn = errors.New("Please login first")

func (s *session) loop() error {
	for {
		fmt.Fprint(s.out, s.prompt)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		line := s.in.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		msg, err := s.dispatch(strings.ToLower(fields[0]), fields[1:], line)
		switch {
		case errors.Is(err, errQuit):
			fmt.Fprintln(s.out, "OK: Goodbye")
			return nil
		case err != nil:
			fmt.Fprintln(s.out, "Error: "+errorText(err))
		default:
			fmt.Fprintln(s.out, "OK: "+msg)
		}
	}
}

// errorText 回傳帳本錯誤的使用者訊息；其餘錯誤原樣輸出。
func errorText(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return "input closed"
	case errors.Is(err, errNotLoggedIn), errors.Is(err, errUsage):
		return err.Error()
	}
	return ledger.Message(err)
}

// dispatch 執行一個指令；line 為原始輸入，供需要保留原文的參數（轉帳備註）使用。
func (s *session) dispatch(cmd string, args []string, line string) (string, error) {
	switch cmd {
	case "signup":
		return s.signup(args)
	case "login":
		return s.login(args)
	case "logout":
		return s.logout()
	case "send":
		return s.send(args, afterFields(line, 3))
	case "balance":
		return s.balance()
	case "history":
		return s.history()
	case "profile":
		return s.profile()
	case "help":
		s.help()
		return "commands listed above", nil
	case "quit", "exit":
		return "", errQuit
	}
	return "", usage("unknown command %q, type 'help'", cmd)
}

// errUsage 標示指令格式錯誤。
var errUsage = errors.New("usage")

type usageError string

func (e usageError) Error() string { return string(e) }
func (e usageError) Is(target error) bool { return target == errUsage }

func usage(format string, a ...any) error {
	return usageError(fmt.Sprintf(format, a...))
}

func (s *session) signup(args []string) (string, error) {
	if len(args) < 1 {
		return "", usage("usage: signup <username> [email]")
	}
	req := ledger.SignupRequest{Username: args[0]}
	if len(args) > 1 {
		req.Email = args[1]
	}
	var err error
	if req.Password, err = s.readSecret("Password: "); err != nil {
		return "", err
	}
	if req.ConfirmPassword, err = s.readSecret("Confirm password: "); err != nil {
		return "", err
	}
	if _, err := s.eng.SignUp(req); err != nil {
		return "", err
	}
	return ledger.SignupSucceeded, nil
}

func (s *session) login(args []string) (string, error) {
	if len(args) != 1 {
		return "", usage("usage: login <username>")
	}
	password, err := s.readSecret("Password: ")
	if err != nil {
		return "", err
	}
	a, err := s.eng.Login(args[0], password)
	if err != nil {
		return "", err
	}
	s.current = a.ID
	return fmt.Sprintf("Welcome, %s! Balance: $%s", a.Username, a.Balance), nil
}

func (s *session) logout() (string, error) {
	if s.current == "" {
		return "", errNotLoggedIn
	}
	s.current = ""
	return "Logged out", nil
}

func (s *session) send(args []string, note string) (string, error) {
	if s.current == "" {
		return "", errNotLoggedIn
	}
	if len(args) < 2 {
		return "", usage("usage: send <recipient> <amount> [note]")
	}
	tx, err := s.eng.Transfer(ledger.TransferRequest{
		FromAccountID:     s.current,
		RecipientUsername: args[0],
		Amount:            args[1],
		Note:              note,
	})
	if err != nil {
		return "", err
	}
	return ledger.TransferSucceeded(tx), nil
}

// afterFields 略過 line 開頭的 n 個以空白分隔的欄位，回傳其後的原文（不含前導空白）。
func afterFields(line string, n int) string {
	for i := 0; i < n; i++ {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		end := strings.IndexFunc(line, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		line = line[end:]
	}
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}

func (s *session) balance() (string, error) {
	a, err := s.me()
	if err != nil {
		return "", err
	}
	return "Balance: $" + a.Balance.String(), nil
}

func (s *session) history() (string, error) {
	a, err := s.me()
	if err != nil {
		return "", err
	}
	txs := s.eng.TransactionsFor(a.ID)
	for _, t := range txs {
		line := fmt.Sprintf("  %s  -$%s to %s", t.Timestamp.Format("2006-01-02 15:04"), t.Amount, t.ToUsername)
		if t.ToAccountID == a.ID {
			line = fmt.Sprintf("  %s  +$%s from %s", t.Timestamp.Format("2006-01-02 15:04"), t.Amount, t.FromUsername)
		}
		if t.Note != "" {
			line += "  (" + t.Note + ")"
		}
		fmt.Fprintln(s.out, line)
	}
	return fmt.Sprintf("%d transaction(s)", len(txs)), nil
}

func (s *session) profile() (string, error) {
	if s.current == "" {
		return "", errNotLoggedIn
	}
	sum, err := s.eng.Summary(s.current)
	if err != nil {
		return "", err
	}
	a := sum.Account
	return fmt.Sprintf("%s <%s> balance $%s, sent $%s, received $%s, %d transaction(s), member since %s",
		a.Username, a.Email, a.Balance, sum.Sent, sum.Received, sum.Count, a.CreatedAt.Format("2006-01-02")), nil
}

func (s *session) help() {
	fmt.Fprintln(s.out, "  signup <username> [email]")
	fmt.Fprintln(s.out, "  login <username>")
	fmt.Fprintln(s.out, "  logout")
	fmt.Fprintln(s.out, "  send <recipient> <amount> [note]")
	fmt.Fprintln(s.out, "  balance | history | profile")
	fmt.Fprintln(s.out, "  quit")
}

// me 重新讀取目前帳戶。
func (s *session) me() (ledger.Account, error) {
	if s.current == "" {
		return ledger.Account{}, errNotLoggedIn
	}
	return s.eng.Account(s.current)
}

// readSecret 在終端機上不回顯地讀取密碼；非終端機（測試、管線）則讀下一行。
func (s *session) readSecret(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if f, ok := s.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if s.in.Scan() {
		return s.in.Text(), nil
	}
	if err := s.in.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
