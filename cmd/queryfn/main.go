// Command queryfn runs one SQL statement as a query function and prints the
// result as JSON.
//
//	queryfn -config db.yaml -returning scalar -sql 'SELECT max(id) FROM t' -default 0
//	queryfn -config db.yaml -returning row -sql 'SELECT * FROM users WHERE id = $1' -arg 7
//	queryfn -config db.yaml -commit -sql 'UPDATE users SET email = :email WHERE id = :id' \
//		-named id=7 -named email=a@example.com
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Konsultn-Engineering/queryfn"
	"github.com/Konsultn-Engineering/queryfn/connector"
	"github.com/Konsultn-Engineering/queryfn/database"
	"github.com/Konsultn-Engineering/queryfn/logger"
	"github.com/Konsultn-Engineering/queryfn/query"
)

// listFlag collects a repeatable flag.
type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Get().ErrorWithErr("query failed", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, argv []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("queryfn", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (optional; QUERYFN_* env vars apply)")
	sqlText := fs.String("sql", "", "SQL statement to run")
	returning := fs.String("returning", "nothing", "Result kind: nothing, scalar, row, rows")
	commit := fs.Bool("commit", false, "Commit the transaction after a successful execution")
	def := fs.String("default", "", "Value returned when there is no row (JSON)")
	logLevel := fs.String("log-level", "", "Log level override: debug, info, warn, error")
	var positional, named listFlag
	fs.Var(&positional, "arg", "Positional argument (repeatable)")
	fs.Var(&named, "named", "Keyed argument as key=value (repeatable)")
	if err := fs.Parse(argv); err != nil {
		return err
	}

	cfg, err := connector.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)

	kind, err := query.ParseReturning(*returning)
	if err != nil {
		return err
	}
	var defVal any
	if *def != "" {
		if err := json.Unmarshal([]byte(*def), &defVal); err != nil {
			return fmt.Errorf("-default: %w", err)
		}
	}
	args, err := callArgs(positional, named)
	if err != nil {
		return err
	}

	db, err := queryfn.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := db.Build(queryfn.Descriptor{
		SQL:       *sqlText,
		Returning: kind,
		Default:   defVal,
		Commit:    *commit,
	})
	if err != nil {
		return err
	}
	res, err := q.Call(ctx, args...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(printable(res))
}

func callArgs(positional, named []string) ([]any, error) {
	if len(named) == 0 {
		args := make([]any, len(positional))
		for i, v := range positional {
			args[i] = v
		}
		return args, nil
	}
	if len(positional) > 0 {
		return nil, errors.New("-arg and -named cannot be combined")
	}
	kv := make(query.Named, len(named))
	for _, pair := range named {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("-named %q: want key=value", pair)
		}
		kv[k] = v
	}
	return []any{kv}, nil
}

// printable turns rows into column maps and raw bytes into text.
func printable(res any) any {
	switch v := res.(type) {
	case database.Row:
		return rowMap(v)
	case []database.Row:
		out := make([]map[string]any, len(v))
		for i, r := range v {
			out[i] = rowMap(r)
		}
		return out
	case []byte:
		return string(v)
	default:
		return v
	}
}

func rowMap(r database.Row) map[string]any {
	m := r.Map()
	for k, v := range m {
		if b, ok := v.([]byte); ok {
			m[k] = string(b)
		}
	}
	return m
}
