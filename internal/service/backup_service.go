package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"ortografia/internal/database"
	"ortografia/internal/importer"
	"ortografia/internal/logger"
	"ortografia/internal/models"
	"ortografia/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database export. Password hashes are
// never exported.
type BackupData struct {
	Version       string                       `json:"version"`
	ExportedAt    time.Time                    `json:"exported_at"`
	DatabaseType  string                       `json:"database_type"`
	Users         []models.User                `json:"users"`
	Classrooms    []models.ClassroomSummary    `json:"classrooms"`
	Enrollments   []models.Enrollment          `json:"enrollments"`
	Relationships []models.ParentChildRelation `json:"relationships"`
	Words         []models.WordEntry           `json:"words"`
	Sessions      []models.GameSession         `json:"game_sessions"`
}

// BackupService handles database export and bulk word import
type BackupService struct {
	db            *database.DB
	users         *repository.UserRepository
	classrooms    *repository.ClassroomRepository
	enrollments   *repository.EnrollmentRepository
	relationships *repository.RelationshipRepository
	words         *repository.WordRepository
	sessions      *repository.GameSessionRepository
	wordService   *WordService
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, wordService *WordService) *BackupService {
	return &BackupService{
		db:            db,
		users:         repository.NewUserRepository(db),
		classrooms:    repository.NewClassroomRepository(db),
		enrollments:   repository.NewEnrollmentRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		words:         repository.NewWordRepository(db),
		sessions:      repository.NewGameSessionRepository(db),
		wordService:   wordService,
	}
}

// Export writes every table as indented JSON to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	logger.Info("Starting database export")

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	var err error
	if backup.Users, err = s.users.ListUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	if backup.Classrooms, err = s.classrooms.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export classrooms: %w", err)
	}
	if backup.Enrollments, err = s.enrollments.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export enrollments: %w", err)
	}
	if backup.Relationships, err = s.relationships.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export relationships: %w", err)
	}
	if backup.Words, err = s.words.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export words: %w", err)
	}
	if backup.Sessions, err = s.sessions.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to export game sessions: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	logger.Info("Database exported",
		"users", len(backup.Users),
		"classrooms", len(backup.Classrooms),
		"enrollments", len(backup.Enrollments),
		"relationships", len(backup.Relationships),
		"words", len(backup.Words),
		"sessions", len(backup.Sessions),
	)
	return backup, nil
}

// ExportFile writes the export to outputPath
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if _, err := s.Export(ctx, file); err != nil {
		return err
	}
	return file.Close()
}

// ImportWordsFile creates words from an xlsx or csv file on behalf of a
// teacher, with the same validation as the API
func (s *BackupService) ImportWordsFile(ctx context.Context, teacherID int64, inputPath string) ([]ImportResult, error) {
	teacher, err := s.users.GetActiveUserByRole(ctx, teacherID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher %d not found or inactive", teacherID)
	}

	format, err := importer.FormatFromName(inputPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	rows, err := importer.Read(file, format)
	if err != nil {
		return nil, err
	}

	logger.Info("Importing words", "file", inputPath, "rows", len(rows), "teacher_id", teacherID)
	return s.wordService.Import(ctx, teacher.Identity(), rows)
}
