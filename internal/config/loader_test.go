package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	config "github.com/okian/presence/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		for _, key := range []string{"PRESENCE_CONFIG", "PRESENCE_ADDR", "PRESENCE_THRESHOLD", "PRESENCE_STORE_BACKEND", "PRESENCE_POSTGRES_URL"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		Convey("When loading with no overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.Threshold, ShouldEqual, 0.75)
				So(cfg.TopK, ShouldEqual, 5)
				So(cfg.ConfidenceFloor, ShouldEqual, 0.9)
				So(cfg.QueueSize, ShouldEqual, 2)
				So(cfg.MaxFrameWidth, ShouldEqual, 640)
				So(cfg.StoreBackend, ShouldEqual, "file")
			})
		})

		Convey("When env vars override defaults", func() {
			t.Setenv("PRESENCE_ADDR", ":7070")
			t.Setenv("PRESENCE_THRESHOLD", "0.85")

			cfg, err := config.Load(context.Background())

			Convey("Then the overrides win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.Threshold, ShouldEqual, 0.85)
				So(cfg.TopK, ShouldEqual, 5)
			})
		})

		Convey("When a YAML file is layered under env", func() {
			path := filepath.Join(t.TempDir(), "presence.yaml")
			So(os.WriteFile(path, []byte("addr: \":6060\"\ntop_k: 3\n"), 0o600), ShouldBeNil)
			t.Setenv("PRESENCE_CONFIG", path)
			t.Setenv("PRESENCE_ADDR", ":7070")

			cfg, err := config.Load(context.Background())

			Convey("Then env beats file beats defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.TopK, ShouldEqual, 3)
			})
		})

		Convey("When the postgres backend has no URL", func() {
			t.Setenv("PRESENCE_STORE_BACKEND", "postgres")

			_, err := config.Load(context.Background())

			Convey("Then loading fails with the invalid-config sentinel", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "postgres_url")
			})
		})

		Convey("When the threshold is out of range", func() {
			t.Setenv("PRESENCE_THRESHOLD", "1.5")

			_, err := config.Load(context.Background())

			Convey("Then loading fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
