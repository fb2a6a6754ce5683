// Command locadmin is an interactive console for the localization service.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/and161185/locadmin/internal/cache"
	"github.com/and161185/locadmin/internal/client"
	"github.com/and161185/locadmin/internal/config"
	"github.com/and161185/locadmin/internal/service"
	"github.com/and161185/locadmin/internal/session"
	"github.com/and161185/locadmin/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `locadmin console
Usage:
  locadmin [-url URL] [-v]

Environment:
  LOCADMIN_API_URL    service base URL (default http://localhost:8000)
  LOCADMIN_STATE_DIR  session state directory
  LOCADMIN_TIMEOUT    request timeout (default 30s)

Type "help" inside the console for commands.
`)
	os.Exit(2)
}

// main wires the client stack and runs the read-eval loop.
func main() {
	// global flags
	urlFlag := flag.String("url", "", "service base URL (overrides env)")
	verbose := flag.Bool("v", false, "verbose logging to stderr")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *urlFlag != "" {
		cfg.APIBaseURL = *urlFlag
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	storage := session.NewStorage(cfg.StateDir)
	api := client.New(cfg.APIBaseURL, cfg.RequestTimeout, storage, logger)
	sess := session.NewStore(api, storage, logger)
	domain := store.New()
	svc := service.New(api, cache.New(), domain, sess, logger)

	sess.Initialize()

	a := &app{
		cfg:    cfg,
		api:    api,
		sess:   sess,
		domain: domain,
		svc:    svc,
		out:    os.Stdout,
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.prompt(),
		HistoryFile:     filepath.Join(cfg.StateDir, "history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(a.out, "locadmin %s (%s), server %s\n", version, buildDate, cfg.APIBaseURL)
	if user := sess.Username(); user != "" {
		fmt.Fprintf(a.out, "signed in as %s\n", user)
	}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		a.dispatch(line)
		a.flushError()
		rl.SetPrompt(a.prompt())
	}
}

func completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("version"),
		readline.PcItem("login"),
		readline.PcItem("register"),
		readline.PcItem("logout"),
		readline.PcItem("whoami"),
		readline.PcItem("projects"),
		readline.PcItem("use"),
		readline.PcItem("langs"),
		readline.PcItem("lang"),
		readline.PcItem("keys"),
		readline.PcItem("filter",
			readline.PcItem("-search"),
			readline.PcItem("-category"),
			readline.PcItem("-lang"),
			readline.PcItem("-missing"),
			readline.PcItem("-clear"),
		),
		readline.PcItem("sort",
			readline.PcItem("key"),
			readline.PcItem("category"),
		),
		readline.PcItem("get"),
		readline.PcItem("add"),
		readline.PcItem("rm"),
		readline.PcItem("set"),
		readline.PcItem("bulk"),
		readline.PcItem("analytics"),
		readline.PcItem("export"),
		readline.PcItem("exit"),
	)
}
