// Command cli replicates objects across the configured storage backends and
// answers consistency queries against the replication records.
//
// Usage:
//
//	cli replicate <key> <file>   encrypt a file and fan it out to all backends
//	cli get <key> [out]          fetch and decrypt, write to stdout or a file
//	cli status <key>             consistency from recorded fingerprints
//	cli verify <key>             re-read every backend and recompute
//	cli stat <key>               per-backend object info, including encryption
//	cli history <key>            all replication records, newest first
//	cli seed <dir>               replicate every file in a directory
//	cli buckets                  create missing buckets and containers
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dpetrovs/trimirror/internal/buildinfo"
	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/cryptox"
	"github.com/dpetrovs/trimirror/internal/server"
	"github.com/dpetrovs/trimirror/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	args := positionals(os.Args[1:])
	if len(args) == 0 {
		log.Fatal("usage: cli <replicate|get|status|verify|stat|history|seed|buckets> ...")
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	masterKey, err := resolveMasterKey(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer common.WipeByteArray(masterKey)

	app, err := server.NewApp(ctx, cfg, masterKey)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := run(ctx, app, args); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, app *server.App, args []string) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "replicate":
		if len(args) != 2 {
			return fmt.Errorf("usage: cli replicate <key> <file>")
		}
		payload, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		rec, err := app.Replicate(ctx, args[0], payload)
		if err != nil {
			return err
		}
		return printJSON(rec)

	case "get":
		if len(args) != 1 && len(args) != 2 {
			return fmt.Errorf("usage: cli get <key> [out]")
		}
		payload, err := app.Fetch(ctx, args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return os.WriteFile(args[1], payload, 0o600)
		}
		_, err = os.Stdout.Write(payload)
		return err

	case "status":
		if len(args) != 1 {
			return fmt.Errorf("usage: cli status <key>")
		}
		status, err := app.Status(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(status)

	case "verify":
		if len(args) != 1 {
			return fmt.Errorf("usage: cli verify <key>")
		}
		status, err := app.Verify(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(status)

	case "stat":
		if len(args) != 1 {
			return fmt.Errorf("usage: cli stat <key>")
		}
		info, err := app.Stat(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(info)

	case "history":
		if len(args) != 1 {
			return fmt.Errorf("usage: cli history <key>")
		}
		history, err := app.History(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(history)

	case "seed":
		if len(args) != 1 {
			return fmt.Errorf("usage: cli seed <dir>")
		}
		return app.Seed(ctx, args[0])

	case "buckets":
		app.EnsureBuckets(ctx)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// resolveMasterKey takes the configured base64 key when present, otherwise
// derives one from a passphrase read off the terminal without echo.
func resolveMasterKey(cfg *config.Config) ([]byte, error) {
	if cfg.MasterKey != "" {
		return cryptox.DecodeMasterKey(cfg.MasterKey)
	}

	fmt.Print("Enter master passphrase: ")
	passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	defer common.WipeByteArray(passphrase)

	if len(passphrase) == 0 {
		return nil, common.ErrNoMasterKey
	}
	return cryptox.DeriveMasterKey(passphrase, []byte(cfg.KeySalt)), nil
}

// positionals strips configuration flags and their values, leaving the
// subcommand and its arguments.
func positionals(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
