package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.MessageModel{}, &domain.UserModel{}))
	return db
}

func TestMessageRepo_CreateIfAbsent(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	msg, created, err := repo.CreateIfAbsent(ctx, &domain.Message{
		ID:           "x1",
		SenderTeam:   100,
		ReceiverTeam: 200,
		Body:         "hi",
	})
	req.NoError(err)
	req.True(created)
	req.False(msg.Timestamp.IsZero())
	req.False(msg.IsRead)

	// Same idempotency key: no second row, the original comes back.
	again, created, err := repo.CreateIfAbsent(ctx, &domain.Message{
		ID:           "x1",
		SenderTeam:   100,
		ReceiverTeam: 200,
		Body:         "hi resent",
	})
	req.NoError(err)
	req.False(created)
	req.Equal("hi", again.Body)
	req.WithinDuration(msg.Timestamp, again.Timestamp, time.Second)

	var count int64
	req.NoError(repo.db.Model(&domain.MessageModel{}).Count(&count).Error)
	req.EqualValues(1, count)
}

func TestMessageRepo_GetByID(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	req.ErrorIs(err, ErrMessageNotFound)

	_, _, err = repo.CreateIfAbsent(ctx, &domain.Message{ID: "x1", SenderTeam: 100, ReceiverTeam: 200, Body: "hi"})
	req.NoError(err)

	msg, err := repo.GetByID(ctx, "x1")
	req.NoError(err)
	req.Equal(100, msg.SenderTeam)
	req.Equal(200, msg.ReceiverTeam)
}

func TestMessageRepo_SequentialTimestampsOrdered(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	m1, _, err := repo.CreateIfAbsent(ctx, &domain.Message{ID: "m1", SenderTeam: 100, ReceiverTeam: 200, Body: "first"})
	req.NoError(err)
	m2, _, err := repo.CreateIfAbsent(ctx, &domain.Message{ID: "m2", SenderTeam: 100, ReceiverTeam: 200, Body: "second"})
	req.NoError(err)

	req.False(m2.Timestamp.Before(m1.Timestamp))
}

func TestMessageRepo_MarkRead(t *testing.T) {
	req := require.New(t)
	repo := NewGormMessageRepository(testDB(t))
	ctx := context.Background()

	req.ErrorIs(repo.MarkRead(ctx, "missing"), ErrMessageNotFound)

	_, _, err := repo.CreateIfAbsent(ctx, &domain.Message{ID: "x1", SenderTeam: 100, ReceiverTeam: 200, Body: "hi"})
	req.NoError(err)

	req.NoError(repo.MarkRead(ctx, "x1"))
	msg, err := repo.GetByID(ctx, "x1")
	req.NoError(err)
	req.True(msg.IsRead)
}

func TestUserRepo_GetByTeamNumber(t *testing.T) {
	req := require.New(t)
	db := testDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	_, err := repo.GetByTeamNumber(ctx, 100)
	req.ErrorIs(err, ErrUserNotFound)

	req.NoError(db.Create(&domain.UserModel{UUID: "u-100", TeamNumber: 100, TeamName: "The Gearheads", Email: "team100@example.com"}).Error)

	user, err := repo.GetByTeamNumber(ctx, 100)
	req.NoError(err)
	req.Equal("team100@example.com", user.Email)
	req.Equal("The Gearheads", user.TeamName)
}
