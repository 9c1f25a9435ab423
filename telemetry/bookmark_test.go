package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_GaitChurn(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Engaged: 4, GaitChanges: 2})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Engaged: 4, GaitChanges: 12})
	if !hasBookmark(bookmarks, BookmarkGaitChurn) {
		t.Error("expected gait_churn bookmark")
	}

	// A small absolute count is not churn even when it is above average
	bd = NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), GaitChanges: 1})
	}
	if hasBookmark(bd.Check(WindowStats{WindowEndTick: 3000, GaitChanges: 4}), BookmarkGaitChurn) {
		t.Error("unexpected gait_churn bookmark for 4 transitions")
	}
}

func TestBookmarkDetector_PathStorm(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), PathRequests: 5})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 2400, PathRequests: 20, PathsRejected: 3})
	if !hasBookmark(bookmarks, BookmarkPathStorm) {
		t.Error("expected path_storm bookmark")
	}
}

func TestBookmarkDetector_LostContact(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 600), Engaged: 6})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1800, Engaged: 2, Disengages: 4, DisengageOutOfRange: 4})
	if !hasBookmark(bookmarks, BookmarkLostContact) {
		t.Fatal("expected lost_contact bookmark")
	}

	// Peak resets after triggering
	bookmarks = bd.Check(WindowStats{WindowEndTick: 2400, Engaged: 2, Disengages: 1})
	if hasBookmark(bookmarks, BookmarkLostContact) {
		t.Error("lost_contact should not retrigger against the old peak")
	}
}

func TestBookmarkDetector_StableFollow(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 10; i++ {
		stats := WindowStats{
			WindowEndTick: int64(i * 600),
			Engaged:       3,
			GaitChanges:   1,
			DistMean:      2.5,
			DistStd:       0.25,
		}
		if hasBookmark(bd.Check(stats), BookmarkStableFollow) {
			triggered++
			if i != 4 {
				t.Errorf("stable_follow triggered at window %d, want 4", i)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("stable_follow triggered %d times, want 1", triggered)
	}
}

func TestBookmarkDetector_StableFollowResets(t *testing.T) {
	bd := NewBookmarkDetector(10)
	steady := WindowStats{Engaged: 2, DistMean: 2, DistStd: 0.1}

	for i := 0; i < 4; i++ {
		bd.Check(steady)
	}
	bd.Check(WindowStats{Engaged: 2, DistMean: 2, DistStd: 1.5}) // noisy window
	for i := 0; i < 4; i++ {
		if hasBookmark(bd.Check(steady), BookmarkStableFollow) {
			t.Fatal("stable_follow should need 5 fresh windows after a reset")
		}
	}
	if !hasBookmark(bd.Check(steady), BookmarkStableFollow) {
		t.Error("expected stable_follow after 5 steady windows")
	}
}
