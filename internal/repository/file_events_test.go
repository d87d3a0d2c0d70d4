package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/goredirect/internal/models"
	"go.uber.org/zap"
)

func TestFileEventJournal_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "journal.ndjson")
	journal, err := NewFileEventJournal(path, zap.NewNop())
	require.NoError(t, err)

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "b", LinkID: "link-1", MonthKey: "2024-06",
		Timestamp: base.Add(time.Minute).UnixMilli(), Device: models.DeviceMobile,
	}))
	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "a", LinkID: "link-1", MonthKey: "2024-06",
		Timestamp: base.UnixMilli(), Device: models.DeviceDesktop,
	}))
	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "c", LinkID: "link-1", MonthKey: "2024-07",
		Timestamp: base.UnixMilli(), Device: models.DeviceBot,
	}))

	events, err := journal.EventsByLinkMonth("link-1", "2024-06")
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Порядок стабилен: по времени, затем по идентификатору
	assert.Equal(t, "a", events[0].EventID)
	assert.Equal(t, models.DeviceDesktop, events[0].Device)
	assert.Equal(t, "b", events[1].EventID)

	events, err = journal.EventsByLinkMonth("link-2", "2024-06")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileEventJournal_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")
	journal, err := NewFileEventJournal(path, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "a", LinkID: "link-1", MonthKey: "2024-06", Timestamp: 1,
	}))

	// Повреждённая строка посреди журнала
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = file.WriteString("{not valid json\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "b", LinkID: "link-1", MonthKey: "2024-06", Timestamp: 2,
	}))

	events, err := journal.EventsByLinkMonth("link-1", "2024-06")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].EventID)
	assert.Equal(t, "b", events[1].EventID)
}

func TestFileEventJournal_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.ndjson")

	journal, err := NewFileEventJournal(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, journal.AppendEvent(models.ClickEvent{
		EventID: "a", LinkID: "link-1", MonthKey: "2024-06", Timestamp: 1,
	}))

	// Новый экземпляр поверх того же файла видит старые события
	reopened, err := NewFileEventJournal(path, zap.NewNop())
	require.NoError(t, err)
	events, err := reopened.EventsByLinkMonth("link-1", "2024-06")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
