package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemaforge"
	"github.com/tordrt/schemaforge/internal/config"
	"github.com/tordrt/schemaforge/internal/logging"
	"github.com/tordrt/schemaforge/internal/report"
	"github.com/tordrt/schemaforge/internal/schema"
)

var (
	dbURL       string
	dialectName string
	defFile     string
	format      string
	ifExists    bool
)

var rootCmd = &cobra.Command{
	Use:   "schemaforge",
	Short: "Generate, validate, and execute schema DDL across database engines",
	Long: `Schemaforge turns abstract table, constraint, and index definitions into
engine-specific DDL for PostgreSQL, MySQL, or SQLite, validates them before
anything reaches a database, and executes multi-statement changes in one
transaction with rollback on partial failure.`,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Emit DDL for a table definition without executing it",
	RunE:  runGenerate,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a table definition offline",
	RunE:  runValidate,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [table]",
	Short: "Analyze a live table's indexes and print recommendations",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create a table with its constraints and indexes transactionally",
	RunE:  runApply,
}

var execCmd = &cobra.Command{
	Use:   "exec [statement...]",
	Short: "Run DDL statements in one transaction",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

var dropCmd = &cobra.Command{
	Use:   "drop [table]",
	Short: "Drop a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "Database connection URL (postgres://, mysql://, or sqlite://)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "text", "Output format: text or markdown")

	generateCmd.Flags().StringVar(&dialectName, "dialect", "", "Target dialect: mysql, postgres, or sqlite")
	generateCmd.Flags().StringVar(&defFile, "file", "", "Table definition JSON file")
	validateCmd.Flags().StringVar(&dialectName, "dialect", "", "Target dialect: mysql, postgres, or sqlite")
	validateCmd.Flags().StringVar(&defFile, "file", "", "Table definition JSON file")
	applyCmd.Flags().StringVar(&defFile, "file", "", "Table definition JSON file")
	dropCmd.Flags().BoolVar(&ifExists, "if-exists", false, "Succeed even if the table does not exist")

	rootCmd.AddCommand(generateCmd, validateCmd, analyzeCmd, applyCmd, execCmd, dropCmd)
}

// loadDefinition reads a table definition from the JSON file flag
func loadDefinition() (*schema.TableDefinition, error) {
	if defFile == "" {
		return nil, fmt.Errorf("--file must be specified")
	}
	data, err := os.ReadFile(defFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}
	var def schema.TableDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition file: %w", err)
	}
	return &def, nil
}

// resolveDialect picks the target dialect from the flag, the URL, or
// the environment default, in that order.
func resolveDialect(cfg *config.Config) (schema.Dialect, error) {
	if dialectName != "" {
		return schema.ParseDialect(dialectName)
	}
	if dbURL != "" {
		eng, err := schemaforge.New(dbURL, nil)
		if err != nil {
			return "", err
		}
		return eng.Dialect(), nil
	}
	return schema.ParseDialect(cfg.Database.DefaultDialect)
}

func newEngine(cfg *config.Config) (*schemaforge.Engine, error) {
	url := dbURL
	if url == "" {
		url = cfg.Database.URL
	}
	if url == "" {
		return nil, fmt.Errorf("--db-url or SCHEMAFORGE_DB_URL must be specified")
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	return schemaforge.New(url, &schemaforge.Options{Timeout: timeout, Logger: logger})
}

func printResults(results []schema.DDLResult) error {
	switch format {
	case "markdown":
		return report.NewMarkdownFormatter(os.Stdout).FormatResults(results)
	case "text":
		return report.NewTextFormatter(os.Stdout).FormatResults(results)
	default:
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}
	dialect, err := resolveDialect(cfg)
	if err != nil {
		return err
	}

	if r := schemaforge.ValidateTable(def, dialect); !r.Valid {
		return fmt.Errorf("definition is invalid: %s", r.JoinedErrors())
	}

	sql, err := schemaforge.GenerateCreateTableSQL(def, dialect)
	if err != nil {
		return fmt.Errorf("failed to generate DDL: %w", err)
	}
	fmt.Println(sql + ";")

	for i := range def.Indexes {
		idx := &def.Indexes[i]
		if idx.Table == "" {
			idx.Table = def.Name
		}
		sql, err := schemaforge.GenerateCreateIndexSQL(idx, dialect)
		if err != nil {
			return fmt.Errorf("failed to generate index DDL: %w", err)
		}
		fmt.Println(sql + ";")
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}
	dialect, err := resolveDialect(cfg)
	if err != nil {
		return err
	}

	r := schemaforge.ValidateTable(def, dialect)
	for _, issue := range r.Errors {
		fmt.Printf("error [%s/%s]: %s\n", issue.Category, issue.Field, issue.Message)
	}
	for _, issue := range r.Warnings {
		fmt.Printf("%s [%s/%s]: %s\n", issue.Severity, issue.Category, issue.Field, issue.Message)
	}
	for _, cycle := range schemaforge.DetectForeignKeyCycles([]*schema.TableDefinition{def}) {
		fmt.Printf("warning [database/constraints]: circular foreign key reference: %s\n", cycle)
	}
	if !r.Valid {
		return fmt.Errorf("definition is invalid")
	}
	fmt.Println("definition is valid")
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		if err := eng.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close connections: %v\n", err)
		}
	}()

	plan, err := eng.OptimizeTableIndexes(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	switch format {
	case "markdown":
		return report.NewMarkdownFormatter(os.Stdout).FormatReport(&plan.Report)
	case "text":
		return report.NewTextFormatter(os.Stdout).FormatReport(&plan.Report)
	default:
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	def, err := loadDefinition()
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		if err := eng.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close connections: %v\n", err)
		}
	}()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = fmt.Sprintf(" applying %s", def.Name)
	spin.Start()
	results, err := applyDefinition(ctx, eng, def)
	spin.Stop()
	if err != nil {
		return err
	}

	if err := printResults(results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("apply failed: %s", r.Error)
		}
	}
	return nil
}

// applyDefinition creates the table first, then its indexes in one
// transaction. Constraints declared on the definition ride along in
// the CREATE TABLE statement itself.
func applyDefinition(ctx context.Context, eng *schemaforge.Engine, def *schema.TableDefinition) ([]schema.DDLResult, error) {
	result, err := eng.CreateTable(ctx, def)
	if err != nil {
		return nil, err
	}
	results := []schema.DDLResult{result}
	if !result.Success || len(def.Indexes) == 0 {
		return results, nil
	}

	vctx := schemaforge.ValidationContext{
		Dialect:          eng.Dialect(),
		AvailableColumns: def.ColumnNames(),
	}
	ops := make([]schemaforge.IndexOperation, 0, len(def.Indexes))
	for i := range def.Indexes {
		idx := &def.Indexes[i]
		if idx.Table == "" {
			idx.Table = def.Name
		}
		ops = append(ops, schemaforge.IndexOperation{Action: schemaforge.IndexCreate, Index: idx})
	}
	indexResults, err := eng.BatchIndexOperations(ctx, ops, &vctx)
	if err != nil {
		return nil, err
	}
	return append(results, indexResults...), nil
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		if err := eng.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close connections: %v\n", err)
		}
	}()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = fmt.Sprintf(" executing %d statements", len(args))
	spin.Start()
	results, err := eng.ExecuteTransaction(ctx, args)
	spin.Stop()
	if err != nil {
		return err
	}

	if err := printResults(results); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("transaction rolled back: %s", r.Error)
		}
	}
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() {
		if err := eng.Close(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close connections: %v\n", err)
		}
	}()

	result, err := eng.DropTable(ctx, args[0], ifExists)
	if err != nil {
		return err
	}
	if err := printResults([]schema.DDLResult{result}); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("drop failed: %s", result.Error)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
