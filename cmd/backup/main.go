package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ortografia/internal/config"
	"ortografia/internal/database"
	"ortografia/internal/logger"
	"ortografia/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import-words", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input .xlsx or .csv file (required)")
	importTeacher := importCmd.Int64("teacher", 0, "ID of the teacher who will own the words (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	if err := logger.Configure(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Warn("Logger configuration incomplete", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		backupService, closeDB := open(ctx, cfg)
		defer closeDB()
		handleExport(ctx, backupService, *exportOutput)

	case "import-words":
		_ = importCmd.Parse(os.Args[2:])
		if *importInput == "" || *importTeacher <= 0 {
			fmt.Println("Error: -input and -teacher flags are required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		backupService, closeDB := open(ctx, cfg)
		defer closeDB()
		handleImportWords(ctx, backupService, *importInput, *importTeacher)

	default:
		printUsage()
		os.Exit(1)
	}
}

// open connects and migrates the database so the schema is up to date
func open(ctx context.Context, cfg *config.Config) (*service.BackupService, func()) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fatal("Failed to initialize database", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		fatal("Failed to run migrations", err)
	}
	return service.NewBackupService(db, service.NewWordService(db)), func() { db.Close() }
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal("Failed to create output directory", err)
		}
	}

	logger.Info("Exporting database", "output", outputPath)
	if err := backupService.ExportFile(ctx, outputPath); err != nil {
		fatal("Export failed", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		fatal("Export file missing", err)
	}
	logger.Info("Export complete", "size_mb", fmt.Sprintf("%.2f", float64(fileInfo.Size())/1024/1024))
}

func handleImportWords(ctx context.Context, backupService *service.BackupService, inputPath string, teacherID int64) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		fatal("Input file does not exist", err)
	}

	logger.Info("Importing words", "input", inputPath, "teacher_id", teacherID)
	results, err := backupService.ImportWordsFile(ctx, teacherID, inputPath)
	if err != nil {
		fatal("Import failed", err)
	}

	created := 0
	for _, res := range results {
		if res.Created {
			created++
			continue
		}
		logger.Warn("Row skipped", "line", res.Line, "word", res.Word, "reason", res.Error)
	}
	logger.Info("Import complete", "created", created, "skipped", len(results)-created)
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Ortografia Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [-output file.json]")
	fmt.Println("  backup import-words -input words.xlsx -teacher <id>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export        Export users, classrooms, enrollments, relationships, words and game sessions to JSON")
	fmt.Println("  import-words  Create words from an .xlsx or .csv file (columns: word, hint, category, difficulty)")
	fmt.Println()
	fmt.Println("Password hashes are never exported.")
	fmt.Println("The database is selected with DB_TYPE, DB_PATH and DATABASE_URL as for the server.")
}
