package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/abennett/letsroll/pkg"
	"github.com/abennett/letsroll/pkg/server"
)

var (
	serveFlags = flag.NewFlagSet("serve", flag.ExitOnError)
	servePort  = serveFlags.Int("port", 8080, "port to listen on")

	rollFlags    = flag.NewFlagSet("roll", flag.ExitOnError)
	rollTotal    = rollFlags.Bool("total", false, "total all dice when no action is given")
	rollSavePath = rollFlags.String("o", "", "also write the report to a file")

	remoteFlags   = flag.NewFlagSet("roll_remote", flag.ExitOnError)
	remoteLogFile = remoteFlags.String("log-file", "", "write debug logs to a file")
)

var rollCmd = &ffcli.Command{
	Name:       "roll",
	ShortUsage: "roll [-total] [-o <savepath>] <dice notation>",
	FlagSet:    rollFlags,
	Exec: func(ctx context.Context, args []string) error {
		if len(args) == 0 {
			fmt.Println("a roll argument is required")
			return nil
		}
		notation := strings.Join(args, " ")
		report, err := pkg.EvaluateWith(pkg.NewRoller(), notation, pkg.Options{
			DefaultTotal: *rollTotal,
		})
		if err != nil {
			return err
		}
		fmt.Println(report)
		if *rollSavePath != "" {
			if err := os.WriteFile(*rollSavePath, []byte(report+"\n"), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote results to %s\n", *rollSavePath)
		}
		return nil
	},
}

var serveCmd = &ffcli.Command{
	Name:       "serve",
	ShortUsage: "serve [-port <port>]",
	FlagSet:    serveFlags,
	Exec: func(ctx context.Context, args []string) error {
		mux := server.NewMux(server.NewServer())
		addr := fmt.Sprintf(":%d", *servePort)
		slog.Info("serving", "addr", addr)
		return http.ListenAndServe(addr, mux)
	},
}

var rollRemoteCmd = &ffcli.Command{
	Name:       "roll_remote",
	ShortUsage: "roll_remote [-log-file <path>] <ws://host:port> <room> <username> [dice notation]",
	FlagSet:    remoteFlags,
	Exec:       rollRemote,
}

func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))
	root := &ffcli.Command{
		ShortUsage: "letsroll <subcommand>",
		Subcommands: []*ffcli.Command{
			rollCmd,
			serveCmd,
			rollRemoteCmd,
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}

	err := root.ParseAndRun(context.Background(), os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}
