package persistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	persistence "github.com/okian/presence/internal/adapters/persistence"
	model "github.com/okian/presence/internal/domain/model"
	roster "github.com/okian/presence/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a fresh directory", t, func() {
		path := filepath.Join(t.TempDir(), "data", "roster.gob")
		store, err := persistence.NewFileStore(path)
		So(err, ShouldBeNil)

		Convey("When nothing has been saved yet", func() {
			people, err := store.Load(context.Background())

			Convey("Then Load returns an empty roster", func() {
				So(err, ShouldBeNil)
				So(people, ShouldBeEmpty)
			})
		})

		Convey("When a roster is saved and loaded", func() {
			want := []roster.Person{
				{Name: "alice", Embeddings: []model.Embedding{{0.1, 0.2}, {0.3, 0.4}}},
				{Name: "bob", Embeddings: []model.Embedding{{0.5, 0.6}}},
			}
			So(store.Save(context.Background(), want), ShouldBeNil)

			got, err := store.Load(context.Background())

			Convey("Then the loaded roster preserves people and order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, want)
			})
		})

		Convey("When a save overwrites an earlier one", func() {
			first := []roster.Person{{Name: "alice", Embeddings: []model.Embedding{{0.1}}}}
			second := []roster.Person{{Name: "bob", Embeddings: []model.Embedding{{0.2}}}}
			So(store.Save(context.Background(), first), ShouldBeNil)
			So(store.Save(context.Background(), second), ShouldBeNil)

			got, err := store.Load(context.Background())

			Convey("Then only the latest roster survives", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, second)
			})
		})
	})
}

func TestCSVRecorder(t *testing.T) {
	Convey("Given a CSV recorder in a fresh directory", t, func() {
		recorder, err := persistence.NewCSVRecorder(t.TempDir())
		So(err, ShouldBeNil)

		day := "2026-08-27"
		at := func(hms string) time.Time {
			ts, perr := time.Parse("2006-01-02 15:04:05", day+" "+hms)
			So(perr, ShouldBeNil)
			return ts
		}

		Convey("When records are appended to one day", func() {
			So(recorder.Append(context.Background(), day, model.Record{Name: "alice", Time: at("09:15:00")}), ShouldBeNil)
			So(recorder.Append(context.Background(), day, model.Record{Name: "bob", Time: at("09:16:30")}), ShouldBeNil)

			got, err := recorder.ReadDay(context.Background(), day)

			Convey("Then they read back in append order with full timestamps", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Name, ShouldEqual, "alice")
				So(got[0].Time.Equal(at("09:15:00")), ShouldBeTrue)
				So(got[1].Name, ShouldEqual, "bob")
				So(got[1].Time.Equal(at("09:16:30")), ShouldBeTrue)
			})
		})

		Convey("When a day has no file", func() {
			got, err := recorder.ReadDay(context.Background(), "2026-01-01")

			Convey("Then the day is empty", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When records land on different days", func() {
			other := "2026-08-28"
			So(recorder.Append(context.Background(), day, model.Record{Name: "alice", Time: at("09:15:00")}), ShouldBeNil)
			So(recorder.Append(context.Background(), other, model.Record{Name: "alice", Time: at("09:15:00").Add(24 * time.Hour)}), ShouldBeNil)

			today, err1 := recorder.ReadDay(context.Background(), day)
			tomorrow, err2 := recorder.ReadDay(context.Background(), other)

			Convey("Then each day's file holds only its own records", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(today, ShouldHaveLength, 1)
				So(tomorrow, ShouldHaveLength, 1)
			})
		})
	})
}
