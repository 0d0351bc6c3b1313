// cmd/sbmt/main.go
// 命令行工具：对存储型 Merkle 树执行查询、更新与回滚，结果以 JSON 输出
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"sbmt/config"
	"sbmt/logs"
	"sbmt/stats"
	"sbmt/storage"
	"sbmt/tree"
)

const usage = `usage: sbmt [flags] <command> [args]

commands:
  root                     print current root
  leaf <index>             print leaf value
  path <index>             print path (siblings + bits) and recomputed root
  update <index> <value>   set leaf, print new root
  rollback <count>         undo the last <count> updates
  rollback-to-root <root>  undo updates until the root equals <root>
  log                      print log pointer and applied entries
  verify <index>           fetch path for <index> and verify it

flags:
`

var errUsage = errors.New("bad usage")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			logs.Error("%v", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sbmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "config file path (JSON)")
		dataDir    = fs.String("data", "", "database directory")
		backend    = fs.String("backend", "", "storage backend: memory|badger|pebble")
		prefix     = fs.String("prefix", "", "tree key prefix")
		depth      = fs.Int("depth", 0, "tree depth")
		defValue   = fs.String("default", "", "default leaf value")
		hasherName = fs.String("hasher", "", "hash function: sha256|keccak256|mimc7")
		codec      = fs.String("codec", "", "update log codec: json|proto")
		level      = fs.String("v", "", "log level: trace|debug|verbose|info|warn|error")
		showStats  = fs.Bool("stats", false, "print operation latency to stderr")
		timeout    = fs.Duration("timeout", 0, "operation timeout (0 = none)")
	)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	// 1. 加载配置，命令行显式给出的参数覆盖配置文件
	cfg, err := config.LoadFromFile(*configFile)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Storage.DataDir = *dataDir
		case "backend":
			cfg.Storage.Backend = *backend
		case "prefix":
			cfg.Tree.Prefix = *prefix
		case "depth":
			cfg.Tree.Depth = *depth
		case "default":
			cfg.Tree.DefaultValue = *defValue
		case "hasher":
			cfg.Tree.Hasher = *hasherName
		case "codec":
			cfg.Tree.LogCodec = *codec
		case "v":
			cfg.Log.Level = *level
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	lv, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logs.SetLevel(lv)
	// stdout 只输出 JSON 结果
	logs.SetOutput(stderr)

	// 2. 打开存储与树
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	st := stats.NewStats()
	t, err := tree.NewFromConfig(cfg.Tree, store, tree.WithStats(st))
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	// 3. 执行命令
	out, err := dispatch(ctx, t, fs.Args())
	if err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
		}
		return err
	}
	if *showStats {
		printStats(stderr, st)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func dispatch(ctx context.Context, t *tree.MerkleTree, args []string) (any, error) {
	cmd, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) != n {
			return fmt.Errorf("%w: %s takes %d argument(s)", errUsage, cmd, n)
		}
		return nil
	}

	switch cmd {
	case "root":
		if err := need(0); err != nil {
			return nil, err
		}
		root, err := t.Root(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"root": root}, nil

	case "leaf":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := parseIndex(rest[0])
		if err != nil {
			return nil, err
		}
		v, err := t.Leaf(ctx, idx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"index": idx, "element": v}, nil

	case "path":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := parseIndex(rest[0])
		if err != nil {
			return nil, err
		}
		return t.Path(ctx, idx)

	case "update":
		if err := need(2); err != nil {
			return nil, err
		}
		idx, err := parseIndex(rest[0])
		if err != nil {
			return nil, err
		}
		root, err := t.Update(ctx, idx, rest[1])
		if err != nil {
			return nil, err
		}
		return map[string]any{"index": idx, "root": root}, nil

	case "rollback":
		if err := need(1); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", tree.ErrInvalidCount, rest[0])
		}
		root, err := t.Rollback(ctx, n)
		if err != nil {
			return nil, err
		}
		return map[string]any{"root": root}, nil

	case "rollback-to-root":
		if err := need(1); err != nil {
			return nil, err
		}
		steps, err := t.RollbackToRoot(ctx, rest[0])
		if err != nil {
			return nil, err
		}
		return map[string]any{"root": rest[0], "steps": steps}, nil

	case "log":
		if err := need(0); err != nil {
			return nil, err
		}
		p, err := t.LogPointer(ctx)
		if err != nil {
			return nil, err
		}
		entries, err := t.History(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"pointer": p, "entries": entries}, nil

	case "verify":
		if err := need(1); err != nil {
			return nil, err
		}
		idx, err := parseIndex(rest[0])
		if err != nil {
			return nil, err
		}
		p, err := t.Path(ctx, idx)
		if err != nil {
			return nil, err
		}
		root, err := t.Root(ctx)
		if err != nil {
			return nil, err
		}
		ok, err := tree.VerifyPath(t.Hasher(), p.Element, idx, p)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"index":   idx,
			"element": p.Element,
			"root":    p.Root,
			"valid":   ok && p.Root == root,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func parseIndex(s string) (int64, error) {
	idx, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", tree.ErrInvalidIndex, s)
	}
	return idx, nil
}

func printStats(w io.Writer, st *stats.Stats) {
	errs := st.Errors()
	for op, s := range st.Latency(false) {
		fmt.Fprintf(w, "%-18s calls=%d errors=%d p50=%s max=%s\n",
			op, s.Count, errs[op], s.P50.Round(time.Microsecond), s.Max.Round(time.Microsecond))
	}
}
