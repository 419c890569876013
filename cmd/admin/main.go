// Package main provides command-line moderation utilities for the Ziogram admin console.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/config"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/database"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/events"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/moderation"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/pagination"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/repository"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/upstream"

	"github.com/gorilla/websocket"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin users [page]          - List registered users")
	fmt.Println("  go run ./cmd/admin reported [page]       - List reported users")
	fmt.Println("  go run ./cmd/admin block <user_id> [-y]  - Block a user")
	fmt.Println("  go run ./cmd/admin ban <user_id> [-y]    - Ban a reported user")
	fmt.Println("  go run ./cmd/admin unban <user_id> [-y]  - Unban a user")
	fmt.Println("  go run ./cmd/admin delete <user_id> [-y] - Delete a user")
	fmt.Println("  go run ./cmd/admin audit [page]          - Show the moderation audit log")
	fmt.Println("  go run ./cmd/admin watch                 - Stream moderation events from the console")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	observability.InitLogger(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	switch command {
	case "users":
		listUsers(ctx, cfg, pageArg(2))

	case "reported":
		listReported(ctx, cfg, pageArg(2))

	case moderation.ActionBlock, moderation.ActionBan, moderation.ActionUnban, moderation.ActionDelete:
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id> [-y]\n", command)
			os.Exit(1)
		}
		userID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil || userID <= 0 {
			fmt.Printf("Invalid user ID: %s\n", os.Args[2])
			os.Exit(1)
		}
		assumeYes := len(os.Args) > 3 && (os.Args[3] == "-y" || os.Args[3] == "--yes")
		moderate(ctx, cfg, command, userID, assumeYes)

	case "audit":
		showAudit(ctx, cfg, pageArg(2))

	case "watch":
		watch(ctx, cfg)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func pageArg(i int) int {
	if len(os.Args) <= i {
		return 1
	}
	page, err := strconv.Atoi(os.Args[i])
	if err != nil || page < 1 {
		fmt.Printf("Invalid page: %s\n", os.Args[i])
		os.Exit(1)
	}
	return page
}

// signIn logs in upstream with the configured admin credentials.
func signIn(ctx context.Context, cfg *config.Config) (*upstream.Client, context.Context) {
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be set to use the admin CLI")
	}
	client := upstream.NewClient(upstream.Config{BaseURL: cfg.UpstreamBaseURL, Timeout: cfg.UpstreamTimeout()})
	res, err := client.AdminLogin(ctx, upstream.LoginRequest{AdminID: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		if rej, ok := upstream.IsRejected(err); ok {
			log.Fatalf("Login failed: %s", rej.Message)
		}
		log.Fatalf("Login failed: %v", err)
	}
	ctx = upstream.WithToken(ctx, res.Token)
	return client, observability.WithAdmin(ctx, cfg.AdminEmail)
}

func listUsers(ctx context.Context, cfg *config.Config, page int) {
	client, ctx := signIn(ctx, cfg)
	res, err := client.ListUsers(ctx, page, cfg.DefaultPageSize)
	if err != nil {
		log.Fatalf("Error fetching users: %v", err)
	}
	if len(res.Users) == 0 {
		fmt.Println("No users found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tBLOCKED\tACTION")
	for _, u := range res.Users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\n",
			u.UserID, u.UserName, u.FullName(), u.EmailID, u.Blocked(), moderation.ActionFor(u.Blocked(), false))
	}
	_ = w.Flush()
	fmt.Println(pagination.Label(page, cfg.DefaultPageSize, res.Pagination.Total))
}

func listReported(ctx context.Context, cfg *config.Config, page int) {
	client, ctx := signIn(ctx, cfg)
	res, err := client.ListReportedUsers(ctx, page, cfg.DefaultPageSize)
	if err != nil {
		log.Fatalf("Error fetching reported users: %v", err)
	}
	if res.Empty || len(res.Reports) == 0 {
		fmt.Println("No reported users found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REPORT\tUSER\tNAME\tREASON\tBLOCKED\tACTION")
	for _, r := range res.Reports {
		blocked := r.Profile.Blocked()
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%t\t%s\n",
			r.ReportID, r.TargetUserID(), r.Profile.FullName(), r.ReportText, blocked, moderation.ActionFor(blocked, true))
	}
	_ = w.Flush()
	fmt.Println(pagination.Label(page, cfg.DefaultPageSize, res.Pagination.Total))
}

func moderate(ctx context.Context, cfg *config.Config, action string, userID int64, assumeYes bool) {
	client, ctx := signIn(ctx, cfg)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(events.NATSConfig{URL: cfg.NATSURL, Name: "ziogram-admin-cli"})
		if err != nil {
			log.Printf("NATS unavailable, event not published: %v", err)
		} else {
			defer nc.Close()
			publisher = nc
		}
	}

	runner := moderation.NewRunner(moderation.DefaultCatalog(), client, repository.NewAuditRepository(db), publisher)

	var confirmer moderation.Confirmer = moderation.Terminal{In: os.Stdin, Out: os.Stdout}
	if assumeYes {
		confirmer = moderation.DecisionFrom("yes")
	}

	out, err := runner.Run(ctx, moderation.Request{Action: action, UserID: userID, Actor: cfg.AdminEmail}, confirmer)
	if err != nil {
		log.Fatalf("Moderation failed: %v", err)
	}
	if out.Status == moderation.StatusCancelled {
		fmt.Println("Cancelled")
		return
	}
	fmt.Printf("%s %s\n", out.Notice.Title, out.Notice.Text)
	if out.Status != moderation.StatusConfirmed {
		os.Exit(1)
	}
}

func showAudit(ctx context.Context, cfg *config.Config, page int) {
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	repo := repository.NewAuditRepository(db)

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	const pageSize = 20
	cursor := pagination.New(pageSize)
	cursor.SetTotal(int(total))
	cursor.GoTo(page)

	entries, err := repo.List(ctx, pageSize, pagination.Offset(cursor.Page(), pageSize))
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No moderation actions recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tADMIN\tACTION\tUSER\tOUTCOME\tMESSAGE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.AdminEmail, e.Action, e.TargetUserID, e.Outcome, e.Message)
	}
	_ = w.Flush()
	fmt.Println(pagination.Label(cursor.Page(), pageSize, int(total)))
}

// watch signs in to the running console and prints its moderation stream.
func watch(ctx context.Context, cfg *config.Config) {
	if cfg.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be set to use the admin CLI")
	}
	base := "localhost:" + cfg.Port

	body, _ := json.Marshal(upstream.LoginRequest{AdminID: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+base+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to build login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Console unreachable: %v", err)
	}
	var login struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	err = json.NewDecoder(resp.Body).Decode(&login)
	resp.Body.Close()
	if err != nil || login.Token == "" {
		log.Fatalf("Console login failed: %s", login.Error)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+login.Token)
	conn, wsResp, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+base+"/api/ws/events", header)
	if err != nil {
		log.Fatalf("Failed to open moderation stream: %v", err)
	}
	defer wsResp.Body.Close()
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	fmt.Println("Watching moderation events (Ctrl+C to stop)")
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Stream closed: %v", err)
			}
			return
		}
		var e events.ModerationEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			fmt.Println(string(payload))
			continue
		}
		fmt.Printf("%s  %-7s user %-6d %-9s by %s %s\n",
			e.At.Local().Format(time.TimeOnly), e.Action, e.UserID, e.Outcome, e.AdminEmail, e.Message)
	}
}
