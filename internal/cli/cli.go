package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/storyboard/internal/app"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/database"
)

// EnvBoard holds the board selected with `storyboard use board`
const EnvBoard = "STORYBOARD_BOARD"

type appKey struct{}

// CLI represents the CLI application context
type CLI struct {
	App    *app.App // Application container with services
	Config *config.Config

	// owned is false when the app was injected and must outlive the command
	owned bool
}

// NewCLI opens the configured database and builds the application container
func NewCLI(ctx context.Context) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.InitDB(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &CLI{
		App:    app.New(db, app.WithLogger(slog.Default())),
		Config: cfg,
		owned:  true,
	}, nil
}

// WithApp returns a context carrying an existing app. Commands run with
// this context reuse it instead of opening the configured database.
func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// GetCLIFromContext returns a CLI for the app stored in ctx, or opens a new one
func GetCLIFromContext(ctx context.Context) (*CLI, error) {
	if a, ok := ctx.Value(appKey{}).(*app.App); ok && a != nil {
		return &CLI{App: a, Config: config.Defaults()}, nil
	}
	return NewCLI(ctx)
}

// Open returns the CLI for cmd, reporting initialization failures through f
func Open(cmd *cobra.Command, f *OutputFormatter) (*CLI, error) {
	cliInstance, err := GetCLIFromContext(cmd.Context())
	if err != nil {
		if fmtErr := f.Error("INITIALIZATION_ERROR", err.Error()); fmtErr != nil {
			slog.Error("Error formatting error message", "error", fmtErr)
		}
		return nil, &CommandError{Code: ExitError, Err: err}
	}
	return cliInstance, nil
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	return c.App.Close()
}

// GetBoardID reads --board, falling back to the STORYBOARD_BOARD env var
func GetBoardID(cmd *cobra.Command) (int, error) {
	if id, _ := cmd.Flags().GetInt("board"); id > 0 {
		return id, nil
	}
	env := os.Getenv(EnvBoard)
	if env == "" {
		return 0, fmt.Errorf("no board specified (use --board or set %s)", EnvBoard)
	}
	id, err := strconv.Atoi(env)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %q", EnvBoard, env)
	}
	return id, nil
}

// NewFormatter builds the formatter selected by --json and --quiet
func NewFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return &OutputFormatter{JSON: jsonOutput, Quiet: quietMode}
}

// AddOutputFlags registers the agent-friendly flags every command carries
func AddOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (ID only)")
}
