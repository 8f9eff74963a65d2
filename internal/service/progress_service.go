package service

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"ortografia/internal/database"
	"ortografia/internal/models"
	"ortografia/internal/policy"
	"ortografia/internal/repository"
	"ortografia/internal/validation"
)

// dashboardWindow is how far back the dashboard counts recent activity
const dashboardWindow = 7 * 24 * time.Hour

// SessionInput is the body of a save progress request. Missing numbers are
// zero and a missing game type is stored empty.
type SessionInput struct {
	GameType         string          `json:"game_type" validate:"max=32"`
	Score            int             `json:"score"`
	TotalQuestions   int             `json:"total_questions"`
	CorrectAnswers   int             `json:"correct_answers"`
	IncorrectAnswers int             `json:"incorrect_answers"`
	TimeSpent        int             `json:"time_spent"`
	Completed        bool            `json:"completed"`
	SessionData      json.RawMessage `json:"session_data"`
}

// ProgressReport is a user's session history with its aggregate
type ProgressReport struct {
	Sessions []models.GameSession `json:"progress"`
	Stats    models.UserProgress  `json:"stats"`
}

// ProgressService records game sessions and derives every aggregate from them
type ProgressService struct {
	users         *repository.UserRepository
	classrooms    *repository.ClassroomRepository
	enrollments   *repository.EnrollmentRepository
	relationships *repository.RelationshipRepository
	sessions      *repository.GameSessionRepository
	configs       *repository.GameConfigRepository
	reports       *repository.ReportRepository
	now           func() time.Time
}

// NewProgressService creates a new progress service
func NewProgressService(db *database.DB) *ProgressService {
	return &ProgressService{
		users:         repository.NewUserRepository(db),
		classrooms:    repository.NewClassroomRepository(db),
		enrollments:   repository.NewEnrollmentRepository(db),
		relationships: repository.NewRelationshipRepository(db),
		sessions:      repository.NewGameSessionRepository(db),
		configs:       repository.NewGameConfigRepository(db),
		reports:       repository.NewReportRepository(db),
		now:           time.Now,
	}
}

// RecordSession appends a session for the acting user
func (s *ProgressService) RecordSession(ctx context.Context, actor models.Identity, in SessionInput) (*models.GameSession, error) {
	if err := policy.Authorize(actor, policy.RecordSession, policy.Resource{SubjectID: actor.ID}); err != nil {
		return nil, err
	}
	in.GameType = strings.TrimSpace(in.GameType)
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if len(in.SessionData) > 0 && !json.Valid(in.SessionData) {
		return nil, fail(ErrValidation, "session_data must be valid JSON")
	}

	return s.sessions.Create(ctx, &models.GameSession{
		UserID:           actor.ID,
		GameType:         in.GameType,
		Score:            in.Score,
		TotalQuestions:   in.TotalQuestions,
		CorrectAnswers:   in.CorrectAnswers,
		IncorrectAnswers: in.IncorrectAnswers,
		TimeSpent:        in.TimeSpent,
		Completed:        in.Completed,
		SessionData:      in.SessionData,
	})
}

// Progress returns a user's sessions and aggregate. Children see themselves,
// parents their linked children and teachers the students in their
// active classrooms.
func (s *ProgressService) Progress(ctx context.Context, actor models.Identity, userID int64) (*ProgressReport, error) {
	if err := policy.Screen(actor, policy.ViewProgress); err != nil {
		return nil, err
	}

	res := policy.Resource{SubjectID: userID}
	if userID != actor.ID {
		switch actor.Role {
		case models.RoleParent:
			ids, err := s.relationships.ParentIDsForChild(ctx, userID)
			if err != nil {
				return nil, err
			}
			res.ParentIDs = ids
		case models.RoleTeacher:
			current, err := s.enrollments.GetActiveForStudent(ctx, userID)
			if err != nil {
				return nil, err
			}
			if current != nil {
				res.SubjectTeacherID = current.TeacherID
			}
		}
	}
	if err := policy.Authorize(actor, policy.ViewProgress, res); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fail(ErrNotFound, "user not found")
	}

	sessions, err := s.sessions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressReport{Sessions: sessions, Stats: Aggregate(sessions)}, nil
}

// Aggregate computes totals and the fixed per game breakdown of sessions
func Aggregate(sessions []models.GameSession) models.UserProgress {
	p := models.UserProgress{ByGameType: make(map[string]models.GameTypeStats, len(models.GameTypes))}
	for _, gt := range models.GameTypes {
		p.ByGameType[gt] = models.GameTypeStats{}
	}

	sums := make(map[string]int, len(models.GameTypes))
	for _, gs := range sessions {
		p.TotalSessions++
		p.TotalScore += gs.Score
		if gs.Completed {
			p.GamesCompleted++
		}

		stats, tracked := p.ByGameType[gs.GameType]
		if !tracked {
			continue
		}
		if stats.Sessions == 0 || gs.Score > stats.BestScore {
			stats.BestScore = gs.Score
		}
		stats.Sessions++
		if gs.Completed {
			stats.Completed++
		}
		sums[gs.GameType] += gs.Score
		p.ByGameType[gs.GameType] = stats
	}

	if p.TotalSessions > 0 {
		p.AverageScore = round1(float64(p.TotalScore) / float64(p.TotalSessions))
	}
	for gt, stats := range p.ByGameType {
		if stats.Sessions > 0 {
			stats.AverageScore = round1(float64(sums[gt]) / float64(stats.Sessions))
			p.ByGameType[gt] = stats
		}
	}
	return p
}

// ClassroomReport returns per-student progress for the acting teacher's
// classroom, best average first. Students without sessions come last;
// ties go by name.
func (s *ProgressService) ClassroomReport(ctx context.Context, actor models.Identity, classroomID int64) ([]models.StudentReport, error) {
	if err := policy.Screen(actor, policy.ViewClassroomReport); err != nil {
		return nil, err
	}
	c, err := s.classrooms.GetSummary(ctx, classroomID, false)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fail(ErrNotFound, "classroom not found")
	}
	if err := policy.Authorize(actor, policy.ViewClassroomReport, policy.Resource{OwnerTeacherID: c.TeacherID}); err != nil {
		return nil, err
	}

	report, err := s.reports.ClassroomProgress(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	for i := range report {
		report[i].AverageScore = roundScore(report[i].AverageScore)
	}
	SortReport(report)
	return report, nil
}

// SortReport orders rows by average score descending with missing averages
// last, then by student name
func SortReport(rows []models.StudentReport) {
	slices.SortStableFunc(rows, func(a, b models.StudentReport) int {
		switch {
		case a.AverageScore == nil && b.AverageScore != nil:
			return 1
		case a.AverageScore != nil && b.AverageScore == nil:
			return -1
		case a.AverageScore != nil && b.AverageScore != nil && *a.AverageScore != *b.AverageScore:
			return cmp.Compare(*b.AverageScore, *a.AverageScore)
		}
		return cmp.Compare(a.StudentName, b.StudentName)
	})
}

// TeacherDashboard returns the acting teacher's headline counts
func (s *ProgressService) TeacherDashboard(ctx context.Context, actor models.Identity) (*models.TeacherDashboard, error) {
	if err := policy.Authorize(actor, policy.ViewTeacherDashboard, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.reports.TeacherDashboard(ctx, actor.ID, s.now().Add(-dashboardWindow))
}

// GameConfigs returns the active word sets of a game type. It needs no identity.
func (s *ProgressService) GameConfigs(ctx context.Context, gameType string) ([]models.GameConfig, error) {
	if !models.IsGameType(gameType) {
		return nil, fail(ErrValidation, "unknown game type %q", gameType)
	}
	return s.configs.ListActive(ctx, gameType)
}

// GameConfigInput is the body of a create game config request
type GameConfigInput struct {
	GameType        string            `json:"game_type" validate:"required,game_type"`
	DifficultyLevel int               `json:"difficulty_level" validate:"omitempty,min=1,max=3"`
	Words           []string          `json:"words" validate:"required,min=1,dive,notblank"`
	Hints           map[string]string `json:"hints"`
}

// CreateGameConfig stores a word set authored by the acting teacher
func (s *ProgressService) CreateGameConfig(ctx context.Context, actor models.Identity, in GameConfigInput) (*models.GameConfig, error) {
	if err := policy.Authorize(actor, policy.ConfigureGame, policy.Resource{}); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if in.DifficultyLevel == 0 {
		in.DifficultyLevel = 1
	}

	words := make([]string, len(in.Words))
	for i, w := range in.Words {
		words[i] = validation.NormalizeWord(w)
	}
	return s.configs.Create(ctx, &models.GameConfig{
		GameType:        in.GameType,
		DifficultyLevel: in.DifficultyLevel,
		Words:           words,
		Hints:           in.Hints,
		CreatedBy:       actor.ID,
		CreatorName:     actor.Name,
		Active:          true,
	})
}
