package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/dittokv/pagestore/pkg/config"
	"github.com/dittokv/pagestore/pkg/driver"
	"github.com/dittokv/pagestore/pkg/page"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively insert, get, delete, and defrag a page file",
	Long: `Open a page file and drop into an interactive shell for
insert/get/delete/defrag operations against it, one at a time, through
the same single-owner driver used by "pagestore serve".

Examples:
  pagestore repl
  pagestore repl --path /var/lib/pagestore/pagestore.dat`,
	RunE: runRepl,
}

var replPath string

func init() {
	replCmd.Flags().StringVar(&replPath, "path", "", "page file path (default: from config)")
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	path := replPath
	if path == "" {
		path = cfg.Page.Path
	}

	store, err := page.Open(path, uint64(cfg.Page.Capacity))
	if err != nil {
		return fmt.Errorf("failed to open page file: %w", err)
	}
	defer store.Close()

	drv := driver.New(store, cfg.Driver.QueueDepth)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		drv.Run(ctx)
	}()
	defer func() {
		cancel()
		<-driverDone
	}()

	r := &repl{path: path, drv: drv}
	return r.run(ctx)
}

type repl struct {
	path string
	drv  *driver.Driver
	line *liner.State
}

func replHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pagestore_history")
}

func (r *repl) run(ctx context.Context) error {
	r.line = liner.NewLiner()
	defer r.line.Close()

	r.line.SetCtrlCAborts(true)
	r.line.SetCompleter(r.completer)

	if f, err := os.Open(replHistoryFile()); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
	defer r.saveHistory()

	fmt.Printf("pagestore repl - %s\n", r.path)
	fmt.Println("Type 'help' for available commands.")

	for {
		input, err := r.line.Prompt("pagestore> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		parts := strings.Fields(input)
		cmdName := strings.ToLower(parts[0])
		cmdArgs := parts[1:]

		switch cmdName {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			return nil
		case "help", "?":
			r.printHelp()
		case "insert", "put":
			r.cmdInsert(ctx, cmdArgs)
		case "get":
			r.cmdGet(ctx, cmdArgs)
		case "del", "delete":
			r.cmdDelete(ctx, cmdArgs)
		case "defrag":
			r.cmdDefrag(ctx)
		case "stats":
			r.cmdStats(ctx)
		default:
			fmt.Printf("unknown command: %s (type 'help')\n", cmdName)
		}
	}
}

func (r *repl) saveHistory() {
	path := replHistoryFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = r.line.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{"insert", "put", "get", "del", "delete", "defrag", "stats", "help", "exit", "quit", "q"}
	var out []string
	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  insert <key> string <text>     Insert a string value")
	fmt.Println("  insert <key> integer <n>       Insert an integer value")
	fmt.Println("  insert <key> blob <base64>     Insert a blob value")
	fmt.Println("  get <key>                      Retrieve a value")
	fmt.Println("  del <key>                      Delete a value")
	fmt.Println("  defrag                         Run one defrag step")
	fmt.Println("  stats                          Show occupancy stats")
	fmt.Println("  exit                           Quit")
}

func (r *repl) cmdInsert(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: insert <key> <string|integer|blob> <value>")
		return
	}
	key, typ, raw := args[0], strings.ToLower(args[1]), strings.Join(args[2:], " ")

	var v page.Value
	switch typ {
	case "string":
		v = page.NewString(raw)
	case "integer":
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fmt.Printf("invalid integer: %v\n", err)
			return
		}
		v = page.NewInteger(n)
	case "blob":
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			fmt.Printf("invalid base64: %v\n", err)
			return
		}
		v = page.NewBlob(b)
	default:
		fmt.Printf("unknown type %q (want string, integer, or blob)\n", typ)
		return
	}

	if err := r.drv.Insert(ctx, key, v); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (r *repl) cmdGet(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")
		return
	}
	v, err := r.drv.Get(ctx, args[0])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	switch v.Type() {
	case page.TypeString:
		fmt.Printf("string: %s\n", v.StringValue())
	case page.TypeInteger:
		fmt.Printf("integer: %d\n", v.IntegerValue())
	case page.TypeBlob:
		fmt.Printf("blob: %s\n", base64.StdEncoding.EncodeToString(v.BlobValue()))
	}
}

func (r *repl) cmdDelete(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")
		return
	}
	if err := r.drv.Delete(ctx, args[0]); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (r *repl) cmdDefrag(ctx context.Context) {
	reclaimed, err := r.drv.Defrag(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("reclaimed a gap: %v\n", reclaimed)
}

func (r *repl) cmdStats(ctx context.Context) {
	stats, err := r.drv.Stats(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("offset=%d capacity=%d live_entries=%d queued_gaps=%d\n",
		stats.Offset, stats.Capacity, stats.LiveEntries, stats.QueuedGaps)
}
