package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/ytmigrate/ytmigrate/internal/repositories"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/shared"
	"github.com/ytmigrate/ytmigrate/internal/tasks"
)

// accountSource and accountDest name the two token slots a migration uses.
const (
	accountSource = "source"
	accountDest   = "destination"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// newClient builds a ResourceClient over an authenticated http.Client.
	// Swapped out in tests.
	newClient func(httpClient *http.Client) services.ResourceClient
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	NewClient  func(httpClient *http.Client) services.ResourceClient
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.NewClient == nil {
		opts.NewClient = func(httpClient *http.Client) services.ResourceClient {
			return services.NewYouTubeClient("", httpClient)
		}
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		newClient:  opts.NewClient,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, subscriptionsCommand, statusCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// tokenPath returns where the OAuth token for the given account slot lives.
func (r *Runner) tokenPath(account string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ytmigrate", account+".json"), nil
}

// resourceClient builds an authenticated API client for the given account slot.
func (r *Runner) resourceClient(ctx context.Context, account string) (services.ResourceClient, error) {
	oauthConfig, err := services.NewOAuthConfig(r.config.Credentials.Google)
	if err != nil {
		return nil, err
	}

	path, err := r.tokenPath(account)
	if err != nil {
		return nil, err
	}
	token, err := services.LoadToken(path)
	if err != nil {
		return nil, fmt.Errorf("%s account: %w (run 'ytmigrate auth %s' first)", account, err, account)
	}

	return r.newClient(services.AuthenticatedClient(ctx, oauthConfig, token)), nil
}

// openDatabase opens the mirror store configured in config.toml.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// buildEngine wires a MigrationEngine over the given clients and store.
// Either client may be nil when the run only needs one half.
func (r *Runner) buildEngine(db *sql.DB, source, dest services.ResourceClient) *tasks.MigrationEngine {
	mig := r.config.Migration
	retry := tasks.DefaultRetryPolicy(services.IsPermanentError)
	if mig.MaxAttempts > 0 {
		retry.MaxAttempts = mig.MaxAttempts
	}
	if mig.BaseDelaySeconds > 0 {
		retry.Base = time.Duration(mig.BaseDelaySeconds) * time.Second
	}

	retention := repositories.DefaultStatusRetention
	if mig.StatusRetentionHours > 0 {
		retention = time.Duration(mig.StatusRetentionHours) * time.Hour
	}

	return tasks.NewMigrationEngine(tasks.EngineConfig{
		Source:    source,
		Dest:      dest,
		Owners:    repositories.NewOwnerRepository(db),
		Playlists: repositories.NewPlaylistRepository(db),
		Items:     repositories.NewPlaylistItemRepository(db),
		Statuses:  repositories.NewStatusRepository(db, retention),
		Retry:     retry,
		RateLimit: mig.RateLimitPerSecond,
		Logger:    r.logger,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
