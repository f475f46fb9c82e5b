package data

import (
	_ "embed"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tomorunn/zisaku/internal/domain"
)

//go:embed demo_contest.json
var demoContestData []byte

// contestJSON represents the embedded demo contest definition. Window
// instants are stored as offsets from seeding time so the demo round is
// running whenever a fresh instance comes up.
type contestJSON struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Organizer       organizerJSON `json:"organizer"`
	StartsInMinutes int           `json:"starts_in_minutes"`
	DurationMinutes int           `json:"duration_minutes"`
	SubmissionLimit int           `json:"submission_limit"`
	Problems        []problemJSON `json:"problems"`
}

type organizerJSON struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type problemJSON struct {
	Label         string   `json:"label"`
	Title         string   `json:"title"`
	Statement     string   `json:"statement"`
	Score         int      `json:"score"`
	CorrectAnswer *string  `json:"correct_answer"`
	Tags          []string `json:"tags"`
}

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSeeder creates a new database seeder
func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

// SeedDemoContest creates the embedded demo contest with its organizer
// account and problem set. Seeding is skipped entirely once any contest
// exists, so restarts never duplicate or reset a running round.
func (s *Seeder) SeedDemoContest() error {
	var count int64
	if err := s.db.Model(&domain.Contest{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Contests already seeded, skipping",
			zap.Int64("count", count),
		)
		return nil
	}

	var def contestJSON
	if err := json.Unmarshal(demoContestData, &def); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(def.Organizer.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	organizer := &domain.User{
		Email:        def.Organizer.Email,
		Username:     def.Organizer.Username,
		PasswordHash: string(passwordHash),
	}

	now := time.Now()
	contest := &domain.Contest{
		Title:           def.Title,
		Description:     def.Description,
		StartsAt:        now.Add(time.Duration(def.StartsInMinutes) * time.Minute),
		EndsAt:          now.Add(time.Duration(def.StartsInMinutes+def.DurationMinutes) * time.Minute),
		SubmissionLimit: def.SubmissionLimit,
	}

	// One transaction: either the whole demo round exists or none of it.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(organizer).Error; err != nil {
			return err
		}
		contest.OrganizerID = organizer.ID
		if err := tx.Create(contest).Error; err != nil {
			return err
		}

		problems := make([]domain.Problem, len(def.Problems))
		for i, p := range def.Problems {
			problems[i] = domain.Problem{
				ContestID:     contest.ID,
				Label:         p.Label,
				Title:         p.Title,
				Statement:     p.Statement,
				Score:         p.Score,
				CorrectAnswer: p.CorrectAnswer,
				Tags:          pq.StringArray(p.Tags),
				OrderIndex:    i,
			}
		}
		return tx.CreateInBatches(problems, 50).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("Seeded demo contest",
		zap.String("contest_id", contest.ID.String()),
		zap.String("title", contest.Title),
		zap.Int("problems", len(def.Problems)),
		zap.Time("starts_at", contest.StartsAt),
		zap.Time("ends_at", contest.EndsAt),
	)
	return nil
}
