package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/agora/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FlashDurationMS, convey.ShouldEqual, 2000)
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 5000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("AGORA_ADDR", ":8080")
			_ = os.Setenv("AGORA_QUEUE_SIZE", "64")
			_ = os.Setenv("AGORA_FLASH_DURATION_MS", "1500")
			_ = os.Setenv("AGORA_MIN_CHANGE_THRESHOLD", "3.5")
			_ = os.Setenv("AGORA_LOG_JSON", "true")
			_ = os.Setenv("AGORA_SCORING_WEIGHTS__TRENDING", "50")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.FlashDurationMS, convey.ShouldEqual, 1500)
				convey.So(cfg.MinChangeThreshold, convey.ShouldEqual, 3.5)
				convey.So(cfg.LogJSON, convey.ShouldBeTrue)
				convey.So(cfg.ScoringWeights["trending"], convey.ShouldEqual, 50)
				convey.So(cfg.ScoringWeights["freshness"], convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempConfigFile(`
addr: ":7070"
poll_interval_ms: 1000
min_reason_strength: 60
scoring_weights:
  freshness: 40
`)
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("AGORA_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 1000)
				convey.So(cfg.MinReasonStrength, convey.ShouldEqual, 60)
				convey.So(cfg.ScoringWeights["freshness"], convey.ShouldEqual, 40)
				convey.So(cfg.ScoringWeights["quality"], convey.ShouldEqual, 15)
				convey.So(cfg.FlashDurationMS, convey.ShouldEqual, 2000)
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("AGORA_ADDR", ":6060")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := createTempConfigFile("addr: [unclosed")
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("AGORA_CONFIG", path)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("AGORA_CONFIG", "/nonexistent/agora.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("AGORA_QUEUE_SIZE", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive poll interval", func() {
			_ = os.Setenv("AGORA_POLL_INTERVAL_MS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file containing an empty addr", func() {
			path := createTempConfigFile(`
# blank address is rejected
addr: ""
`)
			defer func() { _ = os.Remove(path) }()
			_ = os.Setenv("AGORA_CONFIG", path)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"AGORA_CONFIG",
		"AGORA_ADDR",
		"AGORA_QUEUE_SIZE",
		"AGORA_FLASH_DURATION_MS",
		"AGORA_MIN_CHANGE_THRESHOLD",
		"AGORA_LOG_JSON",
		"AGORA_POLL_INTERVAL_MS",
		"AGORA_SCORING_WEIGHTS__TRENDING",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "agora-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
