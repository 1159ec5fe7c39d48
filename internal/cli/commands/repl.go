package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmatch/internal/bench"
	"github.com/leapstack-labs/sqlmatch/internal/catalog"
	"github.com/leapstack-labs/sqlmatch/internal/cli/output"
)

// ReplOptions holds options for the repl command.
type ReplOptions struct {
	DB string
}

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	opts := &ReplOptions{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Parse queries interactively",
		Long: `Start an interactive session that parses each entered query against the
current database and prints its hardness and query tree.

Type .help for commands, .quit to exit.`,
		Example: `  sqlmatch repl --tables tables.json --db concert_singer`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepl(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database to start in")

	return cmd
}

const replPrompt = "sqlmatch(%s)> "

// replSession is the state of one interactive session.
type replSession struct {
	cat *catalog.Catalog
	db  string
	r   *output.Renderer
}

func runRepl(cmd *cobra.Command, opts *ReplOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	cat, err := cmdCtx.OpenCatalog(ctx)
	if err != nil {
		return err
	}
	db := opts.DB
	if db == "" && cat.Len() > 0 {
		db = cat.Names()[0]
	}
	if _, err := cat.Get(db); err != nil {
		return err
	}
	s := &replSession{cat: cat, db: db, r: cmdCtx.Renderer}

	// History lives next to the state database
	historyFile := ""
	if p := cmdCtx.Cfg.State.Path; p != "" && p != ":memory:" {
		dir := filepath.Dir(p)
		if err := os.MkdirAll(dir, 0o750); err == nil {
			historyFile = filepath.Join(dir, "repl_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf(replPrompt, s.db),
		HistoryFile:     historyFile,
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlmatch REPL (%d databases)\n", cat.Len())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		before := s.db
		if quit := s.handleLine(line); quit {
			return nil
		}
		if s.db != before {
			rl.SetPrompt(fmt.Sprintf(replPrompt, s.db))
			rl.Config.AutoComplete = s.completer()
		}
	}
}

// handleLine runs one input line. It reports whether the session should end.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	query := strings.TrimSpace(strings.TrimSuffix(line, ";"))
	entry, err := s.cat.Get(s.db)
	if err != nil {
		s.r.Error(err.Error())
		return false
	}
	in, err := bench.Inspect(query, entry.Schema)
	if err != nil {
		s.r.Error(err.Error())
		return false
	}
	if err := renderInspection(s.r, in); err != nil {
		s.r.Error(err.Error())
	}
	s.r.Println()
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".dbs":
		for _, name := range s.cat.Names() {
			marker := "  "
			if name == s.db {
				marker = "* "
			}
			s.r.Println(marker + name)
		}

	case ".db":
		if len(parts) < 2 {
			s.r.Println(s.db)
			return false
		}
		name := strings.ToLower(parts[1])
		if _, err := s.cat.Get(name); err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.db = name

	case ".tables":
		entry, err := s.cat.Get(s.db)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		for _, t := range entry.Schema.Tables() {
			s.r.Println(t)
		}

	case ".schema":
		if len(parts) < 2 {
			s.r.Error("usage: .schema <table>")
			return false
		}
		entry, err := s.cat.Get(s.db)
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		cols, ok := entry.Schema.Columns(strings.ToLower(parts[1]))
		if !ok {
			s.r.Error(fmt.Sprintf("no table %q in %s", parts[1], s.db))
			return false
		}
		s.r.Println(strings.Join(cols, ", "))

	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .dbs            List databases
  .db [name]      Show or switch the current database
  .tables         List tables of the current database
  .schema <name>  Show the columns of a table
  .quit / .exit   Exit the REPL

Any other line is parsed as a query against the current database.
`
	_, _ = fmt.Fprintln(w, help)
}

// completer completes dot-commands, database names and table names.
func (s *replSession) completer() *readline.PrefixCompleter {
	dbs := make([]readline.PrefixCompleterInterface, 0, s.cat.Len())
	for _, name := range s.cat.Names() {
		dbs = append(dbs, readline.PcItem(name))
	}

	var tables []readline.PrefixCompleterInterface
	if entry, err := s.cat.Get(s.db); err == nil {
		for _, t := range entry.Schema.Tables() {
			tables = append(tables, readline.PcItem(t))
		}
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".dbs"),
		readline.PcItem(".db", dbs...),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	items = append(items, tables...)
	return readline.NewPrefixCompleter(items...)
}
