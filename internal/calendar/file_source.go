package calendar

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FileSource implements HolidaySource using a local holiday file.
//
// Two formats are accepted. YAML (.yaml/.yml):
//
//	- date: 2026-01-01
//	  label: Nyårsdagen
//
// and plain text, one holiday per line:
//
//	2026-01-01 Nyårsdagen
type FileSource struct {
	filePath string
	logger   *zap.Logger

	mu     sync.RWMutex
	loaded bool
	data   map[int]HolidayTable // year → holidays
}

type fileHoliday struct {
	Date  string `yaml:"date"`
	Label string `yaml:"label"`
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
		data:     make(map[int]HolidayTable),
	}
}

// Load loads holiday data from file
func (fs *FileSource) Load() error {
	raw, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to open holiday file: %w", err)
	}

	var entries []fileHoliday
	switch strings.ToLower(filepath.Ext(fs.filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("failed to parse holiday file: %w", err)
		}
	default:
		entries, err = fs.parseLines(raw)
		if err != nil {
			return err
		}
	}

	data := make(map[int]HolidayTable)
	for _, entry := range entries {
		date, err := dateutil.ParseDate(entry.Date)
		if err != nil {
			fs.logger.Warn("Failed to parse holiday date",
				zap.String("date", entry.Date),
				zap.Error(err))
			continue
		}
		table, ok := data[date.Year()]
		if !ok {
			table = HolidayTable{}
			data[date.Year()] = table
		}
		table.Add(date, strings.TrimSpace(entry.Label))
	}

	fs.mu.Lock()
	fs.data = data
	fs.loaded = true
	fs.mu.Unlock()

	fs.logger.Info("Holiday file loaded",
		zap.String("file", fs.filePath),
		zap.Int("years", len(data)))

	return nil
}

func (fs *FileSource) parseLines(raw []byte) ([]fileHoliday, error) {
	var entries []fileHoliday

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Format: YYYY-MM-DD label
		parts := strings.SplitN(line, " ", 2)
		if len(parts) < 2 {
			fs.logger.Warn("Invalid line format", zap.String("line", line))
			continue
		}
		entries = append(entries, fileHoliday{Date: parts[0], Label: parts[1]})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading holiday file: %w", err)
	}
	return entries, nil
}

// Holidays returns the holidays listed for year. A year absent from the file
// is an error so that a composite source can fall back.
func (fs *FileSource) Holidays(_ context.Context, year int) (HolidayTable, error) {
	fs.mu.RLock()
	loaded := fs.loaded
	fs.mu.RUnlock()

	if !loaded {
		if err := fs.Load(); err != nil {
			return nil, err
		}
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	table, ok := fs.data[year]
	if !ok {
		return nil, fmt.Errorf("year not found in holiday file: %d", year)
	}

	out := make(HolidayTable, len(table))
	out.Merge(table)
	return out, nil
}
