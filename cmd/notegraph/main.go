package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/internal/version"
	"github.com/hrygo/notegraph/server"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "notegraph",
		Short: `A personal notes service that links notes through their tags.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if viper.GetBool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := newProfile()
			if err := instanceProfile.Validate(); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				return fmt.Errorf("failed to create db driver: %w", err)
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			if err := storeInstance.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			printGreetings(instanceProfile)

			<-c
			s.Shutdown(ctx)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of notegraph",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("notegraph version %s\n", version.GetCurrentVersion(viper.GetString("mode")))
		},
	}
)

func newProfile() *profile.Profile {
	p := &profile.Profile{
		Mode:             viper.GetString("mode"),
		Addr:             viper.GetString("addr"),
		Port:             viper.GetInt("port"),
		Data:             viper.GetString("data"),
		Driver:           viper.GetString("driver"),
		DSN:              viper.GetString("dsn"),
		InstanceURL:      viper.GetString("instance-url"),
		Secret:           viper.GetString("secret"),
		SessionTTL:       viper.GetDuration("session-ttl"),
		GraphConcurrency: viper.GetInt("graph-concurrency"),
	}
	p.Version = version.GetCurrentVersion(p.Mode)
	p.FromEnv()

	// Sessions do not survive a restart without a configured secret.
	if p.Secret == "" && p.Mode != "prod" {
		p.Secret = uuid.NewString()
		slog.Warn("no secret configured, using a random one for this process")
	}
	return p
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("instance-url", "", "the url of your notegraph instance")
	flags.String("secret", "", "secret used to sign session cookies")
	flags.Duration("session-ttl", 0, "how long a sign-in stays valid (default 720h)")
	flags.Int("graph-concurrency", 0, "maximum number of graphs built at the same time (default 4)")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url", "secret", "session-ttl", "graph-concurrency", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("notegraph")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("notegraph %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(os.Stderr, "Development mode is enabled\n")
		if p.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", p.DSN)
		}
	}
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database driver: %s\n", p.Driver)
	fmt.Printf("Server running on %s\n", p.ListenAddr())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
