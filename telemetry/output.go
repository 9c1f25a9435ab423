package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/companion/config"
)

// csvFile is an append-only CSV file that writes its header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

// write appends records; records must be a slice of csv-tagged structs.
func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	perf      *csvFile
	bookmarks *csvFile
	events    *csvFile
	sessions  *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  **csvFile
	}{
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
		{"events.csv", &om.events},
		{"sessions.csv", &om.sessions},
	}
	for _, file := range files {
		cf, err := createCSV(dir, file.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*file.dst = cf
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteEvents appends controller events to events.csv.
func (om *OutputManager) WriteEvents(records []EventRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := om.events.write(records); err != nil {
		return fmt.Errorf("writing events: %w", err)
	}
	return nil
}

// WriteSessions appends finished sessions to sessions.csv.
func (om *OutputManager) WriteSessions(sessions []*SessionStats) error {
	if om == nil || len(sessions) == 0 {
		return nil
	}
	if err := om.sessions.write(sessions); err != nil {
		return fmt.Errorf("writing sessions: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, cf := range []*csvFile{om.telemetry, om.perf, om.bookmarks, om.events, om.sessions} {
		if cf != nil {
			errs = append(errs, cf.f.Close())
		}
	}
	return errors.Join(errs...)
}
