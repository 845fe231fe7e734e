package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/iwvelando/cohousing-finance/internal/config"
	"github.com/iwvelando/cohousing-finance/internal/server"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/export"
	"github.com/iwvelando/cohousing-finance/pkg/output"
	"github.com/iwvelando/cohousing-finance/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	// A .env file is optional; it only pre-populates COHOUSING_* overrides.
	_ = godotenv.Load()

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": %q}\n", err.Error())
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   constants.DefaultConfigFile,
		Usage:   "path to the scenario file",
		EnvVars: []string{constants.EnvPrefix + "_CONFIG"},
	}
	logLevelFlag := &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level override (debug, info, warn, error)",
	}

	return &cli.App{
		Name:    "cohousing-finance",
		Usage:   "allocate the costs of a cohousing project and plan each participant's financing",
		Version: version,
		Writer:  stdout,
		Flags:   []cli.Flag{configFlag, logLevelFlag},
		Commands: []*cli.Command{
			{
				Name:  "calculate",
				Usage: "calculate every participant's share and loan",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-format", Aliases: []string{"o"}, Usage: "type of output override: pretty, csv, json"},
				},
				Action: calculateAction,
			},
			{
				Name:   "validate",
				Usage:  "report suspicious inputs without calculating",
				Action: validateAction,
			},
			{
				Name:  "schedule",
				Usage: "print the monthly repayment schedule of one participant as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "participant", Aliases: []string{"p"}, Required: true},
				},
				Action: scheduleAction,
			},
			{
				Name:  "export",
				Usage: "write the scenario and its results to a JSON or xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Required: true, Usage: "destination file; .xlsx writes a workbook"},
				},
				Action: exportAction,
			},
			{
				Name:      "verify",
				Usage:     "recompute an export file and check it against its stored results",
				ArgsUsage: "EXPORT_FILE",
				Action:    verifyAction,
			},
			{
				Name:  "serve",
				Usage: "serve the calculation API over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "server-config", Value: constants.DefaultServerConfigFile, Usage: "path to the server configuration"},
				},
				Action: serveAction,
			},
		},
		DefaultCommand: "calculate",
	}
}

// loadScenario loads the configuration named by the global flags and sets
// up logging from it.
func loadScenario(c *cli.Context) (*config.Configuration, *zap.Logger, error) {
	location := c.String("config")
	conf, err := config.LoadConfiguration(location)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", location, err)
	}

	logger, err := initializeLogger(conf.Logging, c.String("log-level"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	return conf, logger, nil
}

func calculateAction(c *cli.Context) error {
	conf, logger, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if override := c.String("output-format"); override != "" {
		outputFormat = override
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}

	results, err := conf.Calculate(logger)
	if err != nil {
		return fmt.Errorf("failed to calculate scenario: %w", err)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(c.App.Writer, results)
	case constants.OutputFormatJSON:
		return output.JSONFormat(c.App.Writer, results)
	default:
		return output.PrettyFormat(c.App.Writer, results)
	}
}

func validateAction(c *cli.Context) error {
	conf, logger, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	warnings := conf.ValidateConfiguration()
	if len(warnings) == 0 {
		fmt.Fprintln(c.App.Writer, "no warnings")
		return nil
	}
	for _, warning := range warnings {
		fmt.Fprintf(c.App.Writer, "warning: %s\n", warning)
	}
	return nil
}

func scheduleAction(c *cli.Context) error {
	conf, logger, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	payments, err := conf.Schedule(logger, c.String("participant"))
	if err != nil {
		return fmt.Errorf("failed to build schedule: %w", err)
	}
	return output.ScheduleCsv(c.App.Writer, payments)
}

func exportAction(c *cli.Context) error {
	conf, logger, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	doc, err := export.Build(logger, conf.Scenario, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build export: %w", err)
	}

	destination := c.String("out")
	if err := writeExport(destination, doc); err != nil {
		return fmt.Errorf("failed to write %s: %w", destination, err)
	}

	logger.Info(fmt.Sprintf("exported %s to %s", doc.ExportID, destination),
		zap.String("op", "main.export"),
	)
	return nil
}

// writeExport writes doc to destination as a workbook when the extension is
// .xlsx and as JSON otherwise. A failed close is reported like a failed write.
func writeExport(destination string, doc export.Document) (err error) {
	file, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if strings.EqualFold(filepath.Ext(destination), ".xlsx") {
		return export.WriteWorkbook(file, doc)
	}
	data, err := export.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	return err
}

func verifyAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("verify needs the path of an export file")
	}

	logger, err := initializeLogger(config.LoggingConfig{Format: "console"}, c.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := export.Load(data)
	if err != nil {
		return err
	}
	if err := export.Verify(logger, doc); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "export %s verified\n", doc.ExportID)
	return nil
}

func serveAction(c *cli.Context) error {
	cfg, err := server.LoadConfig(c.String("server-config"))
	if err != nil {
		return err
	}

	logger, err := initializeLogger(cfg.Logging, c.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.RateLimit(logger, cfg.RateLimiter(), server.NewHandler(logger, cfg.UploadSizeBytes(), cfg.CacheTTLDuration(), version)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main.serve"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.Duration("cacheTTL", cfg.CacheTTLDuration()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down", zap.String("op", "main.serve"))
	return srv.Shutdown(shutdownCtx)
}
