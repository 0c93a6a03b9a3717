package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aymenrakics/Secure-Messaging-System/internal/app"
	"github.com/aymenrakics/Secure-Messaging-System/internal/config"
	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	verbose  bool
	username string
)

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an SMApp. The caller must close it.
// operation identifies the CLI command being run (e.g. "Register", "Send").
func newApp(ctx context.Context, operation string) (*app.SMApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewSMApp(ctx, cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a fresh SMApp and joins fn's error with Close's.
func withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.SMApp) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, operation)
	if err != nil {
		return err
	}
	return errors.Join(fn(ctx, a), a.Close(ctx))
}

// withSession is withApp for commands acting as the --user.
func withSession(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.SMApp, sess *smsg.Session) error) error {
	if username == "" {
		return errors.New("--user is required")
	}
	return withApp(cmd, operation, func(ctx context.Context, a *app.SMApp) error {
		sess, err := a.Login(ctx, username)
		if err != nil {
			return err
		}
		return fn(ctx, a, sess)
	})
}

var rootCmd = &cobra.Command{
	Use:          "smsg",
	Short:        "Secure messaging between local users",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and data directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.Setup(cfg); err != nil {
			return fmt.Errorf("failed to set up data directories: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:   %s\n", cfg.HostID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Crypto:    %s %s (timeout %s)\n", cfg.Crypto.Type, cfg.Crypto.ToolPath, cfg.Crypto.Timeout)
		fmt.Printf("Keys Dir:  %s\n", cfg.Crypto.KeysDir)
		fmt.Printf("Temp Dir:  %s\n", cfg.Crypto.TempDir)
		fmt.Printf("Database:  %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:     %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the message database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage database snapshots",
}

var vaultRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the database from the latest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		version, err := app.RestoreDatabase(cmd.Context(), cfg, force)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored database snapshot version %d\n", version)
		return nil
	},
}

var vaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configured vaults are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.CheckVaults(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Printf("%d vault(s) OK\n", len(cfg.Vaults))
		return nil
	},
}

// register command
var registerCmd = &cobra.Command{
	Use:   "register USERNAME",
	Short: "Create a user and generate their key pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Register", func(ctx context.Context, a *app.SMApp) error {
			u, err := a.Register(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (id %d)\n", u.Username, u.ID)
			return nil
		})
	},
}

// users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListUsers", func(ctx context.Context, a *app.SMApp) error {
			users, err := a.ListUsers(ctx)
			if err != nil {
				return err
			}
			printUsers(os.Stdout, users, username)
			return nil
		})
	},
}

// send command
var sendCmd = &cobra.Command{
	Use:   "send RECIPIENT MESSAGE",
	Short: "Encrypt and send a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "Send", func(ctx context.Context, a *app.SMApp, sess *smsg.Session) error {
			id, err := a.Send(ctx, sess, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Message %d sent to %s\n", id, args[0])
			return nil
		})
	},
}

// inbox command
var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List received messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "Inbox", func(ctx context.Context, a *app.SMApp, sess *smsg.Session) error {
			entries, err := a.Inbox(ctx, sess)
			if err != nil {
				return err
			}
			printInbox(os.Stdout, entries)
			return nil
		})
	},
}

// read command
var readCmd = &cobra.Command{
	Use:   "read N",
	Short: "Decrypt a message by inbox position (or message id with --id)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		byID, _ := cmd.Flags().GetBool("id")

		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", args[0])
		}

		return withSession(cmd, "Read", func(ctx context.Context, a *app.SMApp, sess *smsg.Session) error {
			var text string
			if byID {
				text, err = a.Read(ctx, sess, smsg.MessageID(n))
			} else {
				text, err = a.ReadByIndex(ctx, sess, int(n))
			}
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		})
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show inbox statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, "Stats", func(ctx context.Context, a *app.SMApp, sess *smsg.Session) error {
			stats, err := a.Stats(ctx, sess)
			if err != nil {
				return err
			}
			printStats(os.Stdout, stats)
			return nil
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		return withApp(cmd, "History", func(ctx context.Context, a *app.SMApp) error {
			ops, err := a.History(ctx, limit)
			if err != nil {
				return err
			}

			if len(ops) == 0 {
				fmt.Println("No operations recorded.")
				return nil
			}

			for _, op := range ops {
				duration := ""
				if op.FinishedAt != nil {
					duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Printf("#%d  %-10s  %s  %-8s  %-10s  %s\n",
					op.ID,
					op.Operation,
					op.StartedAt.Local().Format("2006-01-02 15:04:05"),
					op.Status,
					duration,
					op.Parameters,
				)
			}
			return nil
		})
	},
}

// shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Shell", func(ctx context.Context, a *app.SMApp) error {
			return runShell(ctx, a, os.Stdin, os.Stdout, isTerminal(os.Stdin))
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Act as this user")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	dbCmd.AddCommand(dbMigrateCmd)

	vaultCmd.AddCommand(vaultCheckCmd)
	vaultCmd.AddCommand(vaultRestoreCmd)
	vaultRestoreCmd.Flags().Bool("force", false, "Replace an existing local database")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Bool("id", false, "Treat N as a message id")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(shellCmd)
}
