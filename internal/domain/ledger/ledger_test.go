package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/presence/internal/domain/ledger"
	"github.com/okian/presence/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeRecorder collects appended records per day.
type fakeRecorder struct {
	records map[string][]model.Record
	err     error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{records: make(map[string][]model.Record)}
}

func (f *fakeRecorder) Append(ctx context.Context, day string, rec model.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records[day] = append(f.records[day], rec)
	return nil
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	Convey("Given an active ledger with a working recorder", t, func() {
		rec := newFakeRecorder()
		l := ledger.New(ledger.WithRecorder(rec))
		l.SetActive(true)

		Convey("When marking a person for the first time", func() {
			marked, err := l.Mark(ctx, "alice", monday)

			Convey("Then one record should be appended", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeTrue)
				So(len(rec.records[monday.Format(ledger.DayFormat)]), ShouldEqual, 1)
				So(l.Marked("alice", monday), ShouldBeTrue)
			})
		})

		Convey("When marking the same person twice in one day", func() {
			first, err1 := l.Mark(ctx, "alice", monday)
			second, err2 := l.Mark(ctx, "alice", monday.Add(time.Hour))

			Convey("Then exactly one record should exist for that day", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(len(rec.records[monday.Format(ledger.DayFormat)]), ShouldEqual, 1)
			})
		})

		Convey("When the day rolls over", func() {
			_, _ = l.Mark(ctx, "alice", monday)
			marked, err := l.Mark(ctx, "alice", tuesday)

			Convey("Then the new day should be deduplicated independently", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeTrue)
				So(len(rec.records[monday.Format(ledger.DayFormat)]), ShouldEqual, 1)
				So(len(rec.records[tuesday.Format(ledger.DayFormat)]), ShouldEqual, 1)
				So(l.Size(), ShouldEqual, 1)
			})
		})

		Convey("When marking the unknown name", func() {
			marked, err := l.Mark(ctx, model.Unknown, monday)

			Convey("Then nothing should be recorded", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeFalse)
				So(rec.records, ShouldBeEmpty)
			})
		})

		Convey("When marking an empty name", func() {
			marked, err := l.Mark(ctx, "", monday)

			Convey("Then nothing should be recorded", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeFalse)
			})
		})
	})

	Convey("Given a ledger with attendance inactive", t, func() {
		rec := newFakeRecorder()
		l := ledger.New(ledger.WithRecorder(rec))

		Convey("When marking a known person", func() {
			marked, err := l.Mark(ctx, "alice", monday)

			Convey("Then the mark should be suppressed without a record", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeFalse)
				So(rec.records, ShouldBeEmpty)
				So(l.Marked("alice", monday), ShouldBeFalse)
				So(l.Active(), ShouldBeFalse)
			})
		})

		Convey("When attendance is activated afterwards", func() {
			_, _ = l.Mark(ctx, "alice", monday)
			l.SetActive(true)
			marked, err := l.Mark(ctx, "alice", monday)

			Convey("Then the person should be marked as if for the first time", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeTrue)
				So(len(rec.records[monday.Format(ledger.DayFormat)]), ShouldEqual, 1)
			})
		})

		Convey("When attendance is deactivated again after a mark", func() {
			l.SetActive(true)
			_, _ = l.Mark(ctx, "alice", monday)
			l.SetActive(false)
			marked, err := l.Mark(ctx, "bob", monday)

			Convey("Then further marks should be suppressed", func() {
				So(err, ShouldBeNil)
				So(marked, ShouldBeFalse)
				So(len(rec.records[monday.Format(ledger.DayFormat)]), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an active ledger whose recorder fails", t, func() {
		rec := newFakeRecorder()
		rec.err = errors.New("disk full")
		l := ledger.New(ledger.WithRecorder(rec))
		l.SetActive(true)

		Convey("When a mark fails to append", func() {
			marked, err := l.Mark(ctx, "alice", monday)

			Convey("Then the name stays unmarked so it can be retried", func() {
				So(err, ShouldNotBeNil)
				So(marked, ShouldBeFalse)
				So(l.Marked("alice", monday), ShouldBeFalse)
			})

			Convey("And a later retry should succeed", func() {
				rec.err = nil
				marked, err := l.Mark(ctx, "alice", monday)
				So(err, ShouldBeNil)
				So(marked, ShouldBeTrue)
			})
		})
	})
}
