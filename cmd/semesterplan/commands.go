package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/PontusDahlberg/Semesterappen/internal/advisor"
	"github.com/PontusDahlberg/Semesterappen/internal/api"
	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/cli"
	"github.com/PontusDahlberg/Semesterappen/internal/config"
	"github.com/PontusDahlberg/Semesterappen/internal/daemon"
	"github.com/PontusDahlberg/Semesterappen/internal/secrets"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

func printf(format string, args ...any) {
	fmt.Fprintf(out, format, args...)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(errOut, format, args...)
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}

func initCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create and save the default plan if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.planner.Dirty() {
				printf("Plan already exists (%s)\n", s.planner.Overview().Current)
				return nil
			}

			cfg := s.cfg
			printf("New plan %s..%s, budget %s days\n",
				cfg.Calendar.Start, cfg.Calendar.End, budget.FormatDays(cfg.Budget.Days))
			return s.save(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save")
	return cmd
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios with their budget usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			printf("%s", cli.RenderOverview(s.planner.Overview()))
			return nil
		},
	}
}

func cloneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clone NAME",
		Short: "Copy the current scenario under a new name and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			overview, err := s.planner.Clone(args[0])
			if err != nil {
				return err
			}
			printf("%s", cli.RenderOverview(overview))
			return s.save(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save")
	return cmd
}

func monthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month YYYY-MM",
		Short: "Show the days of a month in the current scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month := dateutil.Today().Year(), dateutil.Today().Month()
			if len(args) == 1 {
				var err error
				if year, month, err = dateutil.ParseMonth(args[0]); err != nil {
					return err
				}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			view, err := s.planner.Month(year, month)
			if err != nil {
				return err
			}
			printf("%s", cli.RenderMonth(view))
			return nil
		},
	}
}

func markCmd() *cobra.Command {
	var (
		dryRun bool
		note   string
	)

	cmd := &cobra.Command{
		Use:   "mark YYYY-MM-DD STATUS",
		Short: "Set the mark of one day (vacation, halfday, extraleave, sick, none)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateutil.ParseDate(args[0])
			if err != nil {
				return err
			}
			status, err := calendar.ParseStatus(args[1])
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var notePtr *string
			if cmd.Flags().Changed("note") {
				notePtr = &note
			}
			view, err := s.planner.Mark(date, status, notePtr)
			if err != nil {
				return err
			}
			logger.Info("Day marked",
				zap.String("date", dateutil.Format(date)),
				zap.String("status", status.String()),
				zap.Bool("dry_run", dryRun))

			printf("%s", cli.RenderSummary(view.Summary))
			return s.save(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save")
	cmd.Flags().StringVar(&note, "note", "", "Replace the day's note")
	return cmd
}

func budgetCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "budget [DAYS]",
		Short: "Show or set the vacation budget in days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				printf("%s", cli.RenderSummary(s.planner.Summary()))
				return nil
			}

			days, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid budget %q: %w", args[0], err)
			}
			summary, err := s.planner.SetBudgetDays(days)
			if err != nil {
				return err
			}
			printf("%s", cli.RenderSummary(summary))
			return s.save(cmd.Context(), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save")
	return cmd
}

func summaryCmd() *cobra.Command {
	var (
		plain     bool
		topMonths int
		holidays  int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the budget summary of the current scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report := s.planner.Report(topMonths, holidays)
			if plain {
				printf("%s", report.Text())
				return nil
			}

			printf("%s\n", cli.RenderTitle("Semesterplan: "+report.Scenario))
			printf("%s", cli.RenderSummary(report.Summary))

			t := cli.Table{Title: "Top months", Headers: []string{"Month", "Days"}}
			for _, m := range report.TopMonths {
				t.Rows = append(t.Rows, []string{
					fmt.Sprintf("%d-%02d", m.Year, int(m.Month)),
					budget.FormatDays(m.Consumed),
				})
			}
			printf("%s", cli.RenderTable(t))

			t = cli.Table{Title: "Upcoming holidays", Headers: []string{"Date", "Holiday"}}
			for _, h := range report.UpcomingHolidays {
				t.Rows = append(t.Rows, []string{dateutil.Format(h.Date), h.Label})
			}
			printf("%s", cli.RenderTable(t))

			if report.NextVacation != nil {
				printf("Next vacation: %s\n", dateutil.Format(*report.NextVacation))
			} else {
				printf("Next vacation: none planned\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print the plain text export")
	cmd.Flags().IntVar(&topMonths, "top", 3, "Number of top months")
	cmd.Flags().IntVar(&holidays, "holidays", 5, "Number of upcoming holidays")
	return cmd
}

func serveCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP edit API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := s.cfg.Server
			if address != "" {
				cfg.Address = address
			}
			if !cfg.AuthEnabled() {
				logger.Warn("API authentication disabled, set server.auth_token to enable it")
			}

			handler := api.NewRouter(s.planner, cfg.AuthToken, logger)
			d := daemon.NewDaemon(s.planner, handler, daemon.Options{
				Address:          cfg.Address,
				SystemTray:       cfg.SystemTray,
				AutosaveInterval: cfg.GetAutosaveInterval(),
			}, logger)

			logger.Info("Starting server",
				zap.String("address", cfg.Address),
				zap.String("session_id", s.planner.SessionID()),
				zap.Duration("autosave_interval", cfg.GetAutosaveInterval()))

			go func() {
				<-cmd.Context().Done()
				d.Stop()
			}()
			return d.Start()
		},
	}

	cmd.Flags().StringVar(&address, "addr", "", "Listen address (overrides server.address)")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the read-only plan summary to an assistant over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			logger.Info("Starting MCP server", zap.String("version", version))
			return advisor.New(s.planner, version).ServeStdio()
		},
	}
}

func validateSecretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-secrets [PATH]",
		Short: "Check the secrets TOML file without printing values",
		Long:  "Check the secrets TOML file without printing values.\nExit codes: 0 OK, 2 missing file, 3 parse error.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Default().Secrets.File
			if cfg, err := config.Load(configPath); err == nil {
				path = cfg.Secrets.File
			}
			if len(args) == 1 {
				path = args[0]
			}

			report, err := secrets.Validate(path)
			switch {
			case errors.Is(err, secrets.ErrMissingFile):
				return &exitError{code: 2, err: err}
			case errors.Is(err, secrets.ErrParse):
				return &exitError{code: 3, err: err}
			case err != nil:
				return err
			}

			printf("%s", report.Text())
			return nil
		},
	}
}

