package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/davidleitw/piazza/internal/config"
	"github.com/davidleitw/piazza/internal/piazza"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configFile string
	verbose    bool

	username  string
	password  string
	baseURL   string
	timeout   string
	courseIDs []string
}

var global globalFlags

var rootCmd = &cobra.Command{
	Use:   "piazza",
	Short: "Pull question and answer data from piazza courses.",
	Long: `Pull question and answer data from piazza courses.

With --content_id a single post is printed as JSON (the raw response with --raw).
Otherwise every content id between --start_id and --end_id of each course is
fetched and the valid questions are indexed into Elasticsearch, appended to
--data_file as JSON lines, and/or archived into the sqlite --db.

Credentials can come from flags, piazza.json5 / piazza.local.json5, or the
PIAZZA_ACCOUNT and PIAZZA_PASSWORD environment variables (a .env file is read).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if global.verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
	RunE: runScrape,
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&global.configFile, "config", config.DefaultFile, "Config file, merged with its .local variant.")
	flags.BoolVarP(&global.verbose, "verbose", "v", false, "Enable debug logging.")
	flags.StringVar(&global.username, "username", "", "The username to login with.")
	flags.StringVar(&global.password, "password", "", "The password for the username.")
	flags.StringVar(&global.baseURL, "base_url", "", "Piazza base url.")
	flags.StringVar(&global.timeout, "timeout", "", "Per request timeout, 0 waits forever (default 30s).")
	flags.StringSliceVar(&global.courseIDs, "course_ids", nil, "The ids of the desired courses.")
	flags.MarkHidden("base_url")
}

// loadConfig layers the flags that were set on top of the config files and environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(global.configFile)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("username") {
		cfg.Username = global.username
	}
	if flags.Changed("password") {
		cfg.Password = global.password
	}
	if flags.Changed("base_url") {
		cfg.BaseURL = global.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Timeout = global.timeout
	}
	if flags.Changed("course_ids") {
		cfg.CourseIDs = global.courseIDs
	}

	if cfg.Username == "" || cfg.Password == "" {
		return cfg, fmt.Errorf("a username and password are required")
	}
	return cfg, nil
}

func newClient(ctx context.Context, cfg config.Config, opts ...piazza.ClientOption) (*piazza.Client, error) {
	timeout, err := cfg.RequestTimeout(piazza.DefaultTimeout)
	if err != nil {
		return nil, err
	}

	opts = append(opts, piazza.WithTimeout(timeout))
	if cfg.BaseURL != "" {
		opts = append(opts, piazza.WithBaseURL(cfg.BaseURL))
	}

	client, err := piazza.NewClient(ctx, cfg.Username, cfg.Password, opts...)
	if err != nil {
		logrus.WithError(err).Error("piazza.NewClient failed")
		return nil, err
	}
	return client, nil
}
