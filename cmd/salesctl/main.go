// Command salesctl drives the sales filter from a terminal and prints the
// dashboard for every committed filter change.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/simaogato/luthier-backend/internal/domain"
	"github.com/simaogato/luthier-backend/internal/infrastructure/config"
	"github.com/simaogato/luthier-backend/internal/infrastructure/logger"
	"github.com/simaogato/luthier-backend/internal/usecase/filter"
)

const usage = `commands:
  search <text>        debounced full-text search
  from <YYYY-MM-DD>    lower date bound ("from" alone clears it)
  to <YYYY-MM-DD>      upper date bound ("to" alone clears it)
  preset <name>        last7 last30 last90 thisMonth thisYear all
  client yes|no|any    only sales with or without a client
  sort <column> [asc|desc]
  toggle <column>      flip the direction or switch column
  clear                reset search, dates and client filter
  show                 print the committed filters
  quit`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	server := flag.String("server", "http://localhost"+cfg.HTTP.Addr, "base URL of the HTTP API")
	initial := flag.String("query", "", "initial query string, e.g. search=bow&hasClient=true")
	flag.Parse()

	zapLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	values, err := url.ParseQuery(*initial)
	if err != nil {
		log.Fatalf("Invalid -query: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newQueryStore(values)
	defaults := filter.Filters{
		SortColumn:    cfg.Filter.DefaultSortColumn,
		SortDirection: domain.SortDirection(cfg.Filter.DefaultSortDirection),
	}
	ctrl := filter.NewController(store, defaults, filter.WithSearchDelay(cfg.Filter.SearchDebounce))
	defer ctrl.Close()

	client := &dashboardClient{baseURL: *server, http: &http.Client{Timeout: 10 * time.Second}}
	go watch(ctx, store, client, os.Stdout, zapLogger)

	// show the dashboard for the initial state
	store.ReplaceQuery(store.Query())

	fmt.Fprintln(os.Stdout, usage)
	if err := repl(ctx, os.Stdin, os.Stdout, ctrl); err != nil {
		zapLogger.Error("input failed", zap.Error(err))
	}
}

// watch fetches and prints the dashboard for each query change
func watch(ctx context.Context, store *queryStore, client *dashboardClient, out io.Writer, zapLogger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-store.Changes():
			summary, err := client.Fetch(ctx, q)
			if err != nil {
				zapLogger.Warn("dashboard fetch failed", zap.String("query", q.Encode()), zap.Error(err))
				continue
			}
			fmt.Fprintln(out, summary)
		}
	}
}

func repl(ctx context.Context, in io.Reader, out io.Writer, ctrl *filter.Controller) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := execute(ctrl, scanner.Text(), out)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		if quit {
			return nil
		}
	}
}

// execute applies one command line to the controller
func execute(ctrl *filter.Controller, line string, out io.Writer) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "search":
		ctrl.SetSearch(arg)
	case "from":
		return false, ctrl.SetFrom(arg)
	case "to":
		return false, ctrl.SetTo(arg)
	case "preset":
		return false, ctrl.HandleDatePreset(filter.Preset(arg))
	case "client":
		switch arg {
		case "yes":
			v := true
			ctrl.SetHasClient(&v)
		case "no":
			v := false
			ctrl.SetHasClient(&v)
		case "any", "":
			ctrl.SetHasClient(nil)
		default:
			return false, fmt.Errorf("client expects yes, no or any, got %q", arg)
		}
	case "sort":
		column, direction, _ := strings.Cut(arg, " ")
		if direction == "" {
			direction = string(domain.SortDescending)
		}
		return false, ctrl.SetSort(column, domain.SortDirection(strings.TrimSpace(direction)))
	case "toggle":
		return false, ctrl.ToggleSort(arg)
	case "clear":
		ctrl.ClearFilters()
	case "show":
		f := ctrl.Snapshot()
		hasClient := "any"
		if f.HasClient != nil {
			hasClient = fmt.Sprint(*f.HasClient)
		}
		fmt.Fprintf(out, "from=%q to=%q search=%q hasClient=%s sort=%s %s (typing %q)\n",
			f.From, f.To, f.Search, hasClient, f.SortColumn, f.SortDirection, ctrl.SearchText())
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
	return false, nil
}
