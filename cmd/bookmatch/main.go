// Interactive book recommender.
//
// Type a book title to get comparable titles.
//
// Commands:
//
//	<title>        - Recommend books similar to <title>
//	/book <id>     - Show one catalog record
//	/max <n>       - Set how many recommendations to show
//	/stats         - Show catalog and index sizes
//	/rebuild       - Re-ingest the CSV files and rebuild the index
//	/help          - Show available commands
//	/quit or /q    - Exit
//
// Configuration is read like the server's: bookmatch.yaml or
// $BOOKMATCH_CONFIG, then BOOKMATCH_* environment variables.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hubenschmidt/go-bookmatch"
	"github.com/hubenschmidt/go-bookmatch/config"
	"github.com/hubenschmidt/go-bookmatch/logging"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "re-ingest the CSV files before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}
	if *rebuild {
		cfg.Ingest.RebuildOnStartup = true
	}
	if os.Getenv("BOOKMATCH_LOGGING_FORMAT") == "" {
		cfg.Logging.Format = "console"
	}

	ctx := context.Background()
	app, err := bookmatch.Open(ctx, cfg, nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("start engine")
	}
	defer app.Close()

	r := &repl{engine: app.Engine, out: os.Stdout, maxResults: cfg.Recommend.MaxResults}

	fmt.Println("=== Book Recommender ===")
	fmt.Println()
	r.printHelp()
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	running := true
	for running {
		fmt.Print("> ")
		if !scanner.Scan() {
			running = false
		} else {
			running = r.processInput(ctx, strings.TrimSpace(scanner.Text()))
		}
	}

	fmt.Println("Goodbye!")
}

type repl struct {
	engine     *bookmatch.Engine
	out        io.Writer
	maxResults int
}

// processInput returns false when the session should end.
func (r *repl) processInput(ctx context.Context, input string) bool {
	if input == "" {
		return true
	}
	if strings.HasPrefix(input, "/") {
		return !r.handleCommand(ctx, input)
	}
	r.recommend(ctx, input)
	return true
}

type commandHandler func(r *repl, ctx context.Context, arg string) bool

var commands = map[string]commandHandler{
	"/quit":    (*repl).cmdQuit,
	"/q":       (*repl).cmdQuit,
	"/help":    (*repl).cmdHelp,
	"/h":       (*repl).cmdHelp,
	"/book":    (*repl).cmdBook,
	"/b":       (*repl).cmdBook,
	"/max":     (*repl).cmdMax,
	"/stats":   (*repl).cmdStats,
	"/rebuild": (*repl).cmdRebuild,
}

// handleCommand returns true to quit.
func (r *repl) handleCommand(ctx context.Context, input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(r.out, "Unknown command: %s (type /help for commands)\n", cmd)
		return false
	}
	return handler(r, ctx, arg)
}

func (r *repl) cmdQuit(context.Context, string) bool {
	return true
}

func (r *repl) cmdHelp(context.Context, string) bool {
	r.printHelp()
	return false
}

func (r *repl) cmdBook(ctx context.Context, arg string) bool {
	if arg == "" {
		fmt.Fprintln(r.out, "Usage: /book <id>")
		return false
	}
	b, err := r.engine.Book(ctx, arg)
	if errors.Is(err, bookmatch.ErrNotFound) {
		fmt.Fprintln(r.out, "Book not found!")
		return false
	}
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return false
	}
	fmt.Fprintf(r.out, "%s (%d, %s)\n", b.Display(), b.Year, b.Publisher)
	fmt.Fprintf(r.out, "  id %s, %d ratings, mean %.2f, std %.2f\n", b.ID, b.NumRatings, b.AvgRating, b.StdRating)
	return false
}

func (r *repl) cmdMax(_ context.Context, arg string) bool {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		fmt.Fprintln(r.out, "Usage: /max <positive number>")
		return false
	}
	r.maxResults = n
	fmt.Fprintf(r.out, "Showing up to %d recommendations.\n", n)
	return false
}

func (r *repl) cmdStats(ctx context.Context, _ string) bool {
	st, err := r.engine.Stats(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return false
	}
	fmt.Fprintf(r.out, "Catalog: %d books\n", st.CatalogSize)
	fmt.Fprintf(r.out, "Index:   %d entries, version %s, built %s\n",
		st.IndexSize, st.IndexVersion, st.IndexBuiltAt.Format("2006-01-02 15:04:05"))
	return false
}

func (r *repl) cmdRebuild(ctx context.Context, _ string) bool {
	fmt.Fprintln(r.out, "Rebuilding catalog...")
	report, err := r.engine.Rebuild(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Rebuild failed, previous catalog kept: %v\n", err)
		return false
	}
	fmt.Fprintf(r.out, "Rebuilt %d books in %s (%d unrated, %d years imputed).\n",
		report.Records, report.Duration.Round(time.Millisecond), report.UnratedBooks, report.ImputedYears)
	return false
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, "Commands:")
	fmt.Fprintln(r.out, "  <title>        Recommend books similar to a title")
	fmt.Fprintln(r.out, "  /book <id>     Show a catalog record")
	fmt.Fprintln(r.out, "  /max <n>       Set how many recommendations to show")
	fmt.Fprintln(r.out, "  /stats         Show catalog and index sizes")
	fmt.Fprintln(r.out, "  /rebuild       Re-ingest and rebuild the index")
	fmt.Fprintln(r.out, "  /help          Show this help")
	fmt.Fprintln(r.out, "  /quit          Exit")
}

func (r *repl) recommend(ctx context.Context, title string) {
	res, err := r.engine.Recommend(ctx, title, r.maxResults)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if res.NoMatch {
		fmt.Fprintln(r.out, "Book not found!")
		return
	}
	if len(res.Entries) == 0 {
		fmt.Fprintln(r.out, "No recommendations found.")
		return
	}

	fmt.Fprintln(r.out, "Recommended Books:")
	for _, e := range res.Entries {
		fmt.Fprintln(r.out, bullet(e.String(), wrapWidth))
	}
}
