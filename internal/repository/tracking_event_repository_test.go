package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linktrack/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Link{}, &model.TrackingEvent{}, &model.Notification{}))
	return db
}

func TestFindLatestByUniqueID(t *testing.T) {
	db := openTestDB(t)
	repo := NewTrackingEventRepository(db)

	now := time.Now()
	require.NoError(t, repo.Create(&model.TrackingEvent{LinkID: 1, UniqueID: "uid1", Timestamp: now.Add(-time.Hour), Status: model.EventStatusOpen}))
	require.NoError(t, repo.Create(&model.TrackingEvent{LinkID: 1, UniqueID: "uid1", Timestamp: now, Status: model.EventStatusRedirected}))

	event, err := repo.FindLatestByUniqueID("uid1")
	require.NoError(t, err)
	// 同一标识下取时间最新的事件
	assert.Equal(t, model.EventStatusRedirected, event.Status)

	_, err = repo.FindLatestByUniqueID("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountByUserSince(t *testing.T) {
	db := openTestDB(t)
	links := NewLinkRepository(db)
	events := NewTrackingEventRepository(db)

	link := &model.Link{UserID: 7, ShortCode: "code0001", TargetURL: "https://example.com"}
	require.NoError(t, links.Create(link))

	now := time.Now()
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: now, Status: model.EventStatusRedirected}))
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: now, Status: model.EventStatusBot}))
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: now, Status: model.EventStatusBlocked}))
	// 时间窗口外的事件不计入
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: now.Add(-48 * time.Hour), Status: model.EventStatusRedirected}))

	clicks, blocked, err := events.CountByUserSince(7, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), clicks)
	assert.Equal(t, int64(2), blocked)

	// 其他用户没有任何事件
	clicks, blocked, err = events.CountByUserSince(8, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), clicks)
	assert.Equal(t, int64(0), blocked)
}

func TestLinkCounters(t *testing.T) {
	db := openTestDB(t)
	repo := NewLinkRepository(db)

	link := &model.Link{UserID: 1, ShortCode: "code0002", TargetURL: "https://example.com"}
	require.NoError(t, repo.Create(link))

	require.NoError(t, repo.IncrTotalClicks(link.ID))
	require.NoError(t, repo.IncrTotalClicks(link.ID))
	require.NoError(t, repo.IncrRealVisitors(link.ID))
	require.NoError(t, repo.IncrBlockedAttempts(link.ID))

	reloaded, err := repo.FindByID(link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.TotalClicks)
	assert.Equal(t, int64(1), reloaded.RealVisitors)
	assert.Equal(t, int64(1), reloaded.BlockedAttempts)
}

func TestFindByShortCode(t *testing.T) {
	db := openTestDB(t)
	repo := NewLinkRepository(db)

	require.NoError(t, repo.Create(&model.Link{UserID: 1, ShortCode: "code0003", TargetURL: "https://example.com"}))

	link, err := repo.FindByShortCode("code0003")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.TargetURL)

	_, err = repo.FindByShortCode("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDistinctUserIDs(t *testing.T) {
	db := openTestDB(t)
	repo := NewLinkRepository(db)

	require.NoError(t, repo.Create(&model.Link{UserID: 1, ShortCode: "a1", TargetURL: "https://example.com"}))
	require.NoError(t, repo.Create(&model.Link{UserID: 1, ShortCode: "a2", TargetURL: "https://example.com"}))
	require.NoError(t, repo.Create(&model.Link{UserID: 2, ShortCode: "a3", TargetURL: "https://example.com"}))

	userIDs, err := repo.DistinctUserIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, userIDs)
}
