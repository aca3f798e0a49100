package results

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mathrush/arena-backend/internal/room"
)

// MatchRecord archives one finished match. ELO and ranking pipelines read
// these rows downstream; this service only writes them.
type MatchRecord struct {
	ID           uint   `gorm:"primaryKey"`
	MatchID      string `gorm:"uniqueIndex;not null"`
	Reason       string `gorm:"not null"`
	WinnerTeamID string
	Draw         bool
	FinishedAt   time.Time
	CreatedAt    time.Time
}

type PlayerRecord struct {
	ID        uint   `gorm:"primaryKey"`
	MatchID   string `gorm:"index;not null"`
	TeamID    string `gorm:"not null"`
	TeamName  string
	TeamScore int
	Won       bool
	PlayerID  string `gorm:"not null"`
	Name      string
	Score     int
	Correct   int
	Total     int
	MaxStreak int
	CreatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&MatchRecord{}, &PlayerRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save writes the match and per-player rows in one transaction.
func (s *Store) Save(ctx context.Context, summary room.Summary) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := MatchRecord{
			MatchID:      summary.MatchID,
			Reason:       string(summary.Reason),
			WinnerTeamID: summary.WinnerTeamID,
			Draw:         summary.Draw,
			FinishedAt:   summary.FinishedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for _, team := range summary.Teams {
			for _, p := range team.Players {
				row := PlayerRecord{
					MatchID:   summary.MatchID,
					TeamID:    team.TeamID,
					TeamName:  team.Name,
					TeamScore: team.Score,
					Won:       team.Won,
					PlayerID:  p.ID,
					Name:      p.Name,
					Score:     p.Score,
					Correct:   p.Correct,
					Total:     p.Total,
					MaxStreak: p.MaxStreak,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
