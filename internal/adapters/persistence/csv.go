package persistence

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/presence/internal/domain/ledger"
	"github.com/okian/presence/internal/domain/model"
)

// Attendance file layout constants.
const (
	attendancePrefix = "attendance_"
	attendanceExt    = ".csv"
	timeColumnFormat = "15:04:05"
)

var attendanceHeader = []string{"Name", "Time"}

// CSVRecorder appends attendance records to one CSV file per day, named
// attendance_YYYY-MM-DD.csv, with a Name,Time header row.
type CSVRecorder struct {
	mu  sync.Mutex
	dir string
}

// NewCSVRecorder creates a recorder writing under dir, creating it as
// needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if dir == "" {
		return nil, errors.New("attendance directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating attendance directory: %w", err)
	}
	return &CSVRecorder{dir: dir}, nil
}

var _ ledger.Recorder = (*CSVRecorder)(nil)

// Append writes one record to the day's file, creating it with a header row
// first. The file is synced before Append returns so a marked name is on
// disk once the ledger commits it.
func (r *CSVRecorder) Append(ctx context.Context, day string, rec model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	path := r.dayPath(day)
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, storeFileMode)
	if err != nil {
		return fmt.Errorf("opening attendance file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(attendanceHeader); err != nil {
			return fmt.Errorf("writing attendance header: %w", err)
		}
	}
	if err := w.Write([]string{rec.Name, rec.Time.Format(timeColumnFormat)}); err != nil {
		return fmt.Errorf("writing attendance record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing attendance record: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing attendance file: %w", err)
	}
	return nil
}

// ReadDay returns the records for one day in file order. A missing file is
// an empty day.
func (r *CSVRecorder) ReadDay(ctx context.Context, day string) ([]model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(r.dayPath(day))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("opening attendance file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading attendance file: %w", err)
	}

	dayStart, err := time.Parse(ledger.DayFormat, day)
	if err != nil {
		return nil, fmt.Errorf("parsing day %q: %w", day, err)
	}

	records := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) == len(attendanceHeader) && row[0] == attendanceHeader[0] {
			continue
		}
		if len(row) != 2 {
			return nil, fmt.Errorf("attendance file row %d: expected 2 columns, got %d", i+1, len(row))
		}
		clock, err := time.Parse(timeColumnFormat, row[1])
		if err != nil {
			return nil, fmt.Errorf("attendance file row %d: %w", i+1, err)
		}
		records = append(records, model.Record{
			Name: row[0],
			Time: dayStart.Add(time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second),
		})
	}
	return records, nil
}

func (r *CSVRecorder) dayPath(day string) string {
	return filepath.Join(r.dir, attendancePrefix+day+attendanceExt)
}
