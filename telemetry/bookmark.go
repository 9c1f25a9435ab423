package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkGaitChurn    BookmarkType = "gait_churn"
	BookmarkPathStorm    BookmarkType = "path_storm"
	BookmarkLostContact  BookmarkType = "lost_contact"
	BookmarkStableFollow BookmarkType = "stable_follow"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in follow behavior.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentEngagedPeak int // peak engaged count in recent history
	stableWindows     int // consecutive windows with steady follow distance
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable follow detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Gait churn: transitions > 2x rolling average
		if b := bd.checkGaitChurn(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Path storm: path requests > 2x rolling average
		if b := bd.checkPathStorm(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Lost contact: engaged agents dropped by half from recent peak
		if b := bd.checkLostContact(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Stable follow: steady distances over 5 consecutive windows
	if b := bd.checkStableFollow(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if stats.Engaged > bd.recentEngagedPeak {
		bd.recentEngagedPeak = stats.Engaged
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkGaitChurn(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.GaitChanges
	}
	avg := float64(total) / float64(len(history))

	if float64(stats.GaitChanges) > avg*2 && stats.GaitChanges >= 6 {
		return &Bookmark{
			Type:        BookmarkGaitChurn,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d gait transitions vs %.1f average", stats.GaitChanges, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPathStorm(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.PathRequests
	}
	avg := float64(total) / float64(len(history))

	if float64(stats.PathRequests) > avg*2 && stats.PathRequests >= 10 {
		return &Bookmark{
			Type:        BookmarkPathStorm,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d path requests vs %.1f average (%d rejected)", stats.PathRequests, avg, stats.PathsRejected),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkLostContact(stats WindowStats) *Bookmark {
	if bd.recentEngagedPeak < 2 {
		return nil
	}

	if stats.Engaged*2 <= bd.recentEngagedPeak && stats.Disengages > 0 {
		// Reset peak after triggering
		oldPeak := bd.recentEngagedPeak
		bd.recentEngagedPeak = stats.Engaged

		return &Bookmark{
			Type:        BookmarkLostContact,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Engaged agents fell from %d to %d (%d out of range)", oldPeak, stats.Engaged, stats.DisengageOutOfRange),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableFollow(stats WindowStats) *Bookmark {
	if stats.Engaged == 0 || stats.DistMean <= 0 {
		bd.stableWindows = 0
		return nil
	}

	// Low spread: coefficient of variation < 20% and no gait flapping
	if stats.DistStd/stats.DistMean < 0.2 && stats.GaitChanges <= stats.Engaged {
		bd.stableWindows++
	} else {
		bd.stableWindows = 0
	}

	if bd.stableWindows == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableFollow,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady follow at %.2fm over 5 windows with %d engaged", stats.DistMean, stats.Engaged),
		}
	}
	return nil
}
