package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linktrack/internal/model"
	"linktrack/internal/repository"
)

func TestSendDailySummary(t *testing.T) {
	db := openTestDB(t)
	links := repository.NewLinkRepository(db)
	events := repository.NewTrackingEventRepository(db)
	notifier := &recordingNotifier{}

	link := &model.Link{UserID: 3, ShortCode: "sum00001", TargetURL: "https://example.com"}
	require.NoError(t, links.Create(link))
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: time.Now(), Status: model.EventStatusRedirected}))
	require.NoError(t, events.Create(&model.TrackingEvent{LinkID: link.ID, Timestamp: time.Now(), Status: model.EventStatusBot}))

	NewSummaryService(links, events, notifier).SendDailySummary()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.titles, 1)
	assert.Equal(t, "Daily summary", notifier.titles[0])
	assert.Contains(t, notifier.messages[0], "2 visits")
	assert.Contains(t, notifier.messages[0], "1 blocked")
}

func TestSendDailySummarySkipsQuietUsers(t *testing.T) {
	db := openTestDB(t)
	links := repository.NewLinkRepository(db)
	events := repository.NewTrackingEventRepository(db)
	notifier := &recordingNotifier{}

	require.NoError(t, links.Create(&model.Link{UserID: 4, ShortCode: "sum00002", TargetURL: "https://example.com"}))

	NewSummaryService(links, events, notifier).SendDailySummary()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Empty(t, notifier.titles)
}
