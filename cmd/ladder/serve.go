package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/snakeladder-arena/internal/driver"
	"github.com/vovakirdan/snakeladder-arena/internal/platform/tui"
	"github.com/vovakirdan/snakeladder-arena/internal/server"
)

var (
	serveSeats      seatFlags
	flagHTTPAddr    string
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagNoSSH       bool
	flagOrigin      string
	flagMaxMatches  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the SSH spectator server",
	Long: `Start the JSON API and an SSH server.

The API stores finished games, serves the leaderboard and runs live
matches whose seats and keys are posted by the caller. Keys sent to the
API are held in memory for the life of the match only.

Each SSH connection watches its own match between the configured seats.
Run "ssh -p 23234 localhost leaderboard" to see the standings instead.

Examples:
  ladder serve
  ladder serve --http :9000 --ssh :2222
  ladder serve --no-ssh --origin https://arena.example.com
  ladder serve --host-key ./host_key --offline`,
	Run: runServe,
}

func init() {
	addSeatFlags(serveCmd, &serveSeats)
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP address (host:port)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (generated when missing)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().BoolVar(&flagNoSSH, "no-ssh", false, "Serve only the HTTP API")
	serveCmd.Flags().StringVar(&flagOrigin, "origin", "*", "Allowed CORS origin")
	serveCmd.Flags().IntVar(&flagMaxMatches, "max-matches", 16, "Maximum live matches on the API")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := mustConfig(&serveSeats)
	if flagHTTPAddr != "" {
		cfg.HTTPAddr = flagHTTPAddr
	}
	if flagSSHAddr != "" {
		cfg.SSHAddr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	logger := newLogger(cfg, "ladder")

	store := openStore(cfg)
	defer store.Close()

	factory := driverFactory(cfg, store, logger, serveSeats.offline)
	api := server.New(server.Config{
		Store:      store,
		Logger:     logger.WithPrefix("http"),
		Origin:     flagOrigin,
		NewDriver:  factory,
		MaxMatches: flagMaxMatches,
		Offline:    serveSeats.offline,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenAndServe(ctx, cfg.HTTPAddr)
	})

	if !flagNoSSH {
		sshServer, err := tui.NewSSHServer(tui.SSHServerConfig{
			Address:     cfg.SSHAddr,
			HostKeyPath: expandPath(cfg.HostKeyPath),
			IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
			NewDriver: func() (*driver.Driver, error) {
				p1, p2, err := seats(cfg, serveSeats.offline)
				if err != nil {
					return nil, err
				}
				return factory(p1, p2)
			},
			Leaderboard: store,
			Logger:      logger.WithPrefix("ssh"),
		})
		if err != nil {
			exitf("%v", err)
		}
		g.Go(func() error {
			return sshServer.ListenAndServe(ctx)
		})
		fmt.Printf("Connect with: ssh localhost -p %s\n", portOf(cfg.SSHAddr))
	}

	fmt.Printf("API listening on %s\n", cfg.HTTPAddr)
	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		exitf("server error: %v", err)
	}
}
