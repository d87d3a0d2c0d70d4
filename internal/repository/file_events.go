package repository

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tempizhere/goredirect/internal/models"
	"go.uber.org/zap"
)

// FileEventJournal реализует ClickEventRepository поверх файла в формате
// NDJSON. Каждая строка содержит одно событие клика, записи только
// дописываются в конец файла.
type FileEventJournal struct {
	filePath string
	logger   *zap.Logger
	mutex    sync.Mutex
}

// NewFileEventJournal создаёт журнал событий, при необходимости создавая файл
func NewFileEventJournal(filePath string, logger *zap.Logger) (*FileEventJournal, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	file.Close()

	return &FileEventJournal{
		filePath: filePath,
		logger:   logger,
	}, nil
}

// AppendEvent дописывает одно событие в конец журнала
func (j *FileEventJournal) AppendEvent(event models.ClickEvent) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	file, err := os.OpenFile(j.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write(data)
	return err
}

// EventsByLinkMonth сканирует журнал и возвращает события ссылки за месяц,
// упорядоченные по времени и идентификатору события
func (j *FileEventJournal) EventsByLinkMonth(linkID, monthKey string) ([]models.ClickEvent, error) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		j.logger.Error("Failed to open event journal", zap.Error(err))
		return nil, err
	}
	defer file.Close()

	var events []models.ClickEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event models.ClickEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			// Повреждённая строка не должна ломать чтение журнала
			j.logger.Warn("Skipping invalid journal line", zap.String("line", string(scanner.Bytes())), zap.Error(err))
			continue
		}
		if event.LinkID == linkID && event.MonthKey == monthKey {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		j.logger.Error("Error reading event journal", zap.Error(err))
		return nil, err
	}

	sort.Slice(events, func(i, k int) bool {
		if events[i].Timestamp != events[k].Timestamp {
			return events[i].Timestamp < events[k].Timestamp
		}
		return events[i].EventID < events[k].EventID
	})
	return events, nil
}
