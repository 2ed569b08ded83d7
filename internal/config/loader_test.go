package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/innings/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		noEnvFile := config.WithEnvFile("")

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, noEnvFile)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1024)
				convey.So(cfg.Match.Target, convey.ShouldEqual, 549)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CRICKET_ADDR", ":8080")
			_ = os.Setenv("CRICKET_QUEUE_SIZE", "64")
			_ = os.Setenv("CRICKET_LLM__MODEL", "gpt-4o")
			_ = os.Setenv("CRICKET_POLL__INTERVAL", "15s")
			_ = os.Setenv("CRICKET_MATCH__BATTER__NAME", "Dhruv Jurel")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, noEnvFile)

			convey.Convey("Then flat and nested keys override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.LLM.Model, convey.ShouldEqual, "gpt-4o")
				convey.So(cfg.Poll.Interval, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.Match.Batter.Name, convey.ShouldEqual, "Dhruv Jurel")
				convey.So(cfg.Match.Batter.Runs, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with a YAML file and env", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
total_overs: 80
match:
  total_runs: 58
  wickets_lost: 3
  dismissed:
    - name: Yashasvi Jaiswal
      runs: 13
      dismissal_mode: caught
      bowler: Marco Jansen
      fielder: Kyle Verreynne
cache:
  backend: redis
  redis_addr: "redis:6379"
  ttl: 2m
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("CRICKET_CONFIG", tmpFile)
			_ = os.Setenv("CRICKET_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, noEnvFile)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TotalOvers, convey.ShouldEqual, 80.0)
				convey.So(cfg.Match.TotalRuns, convey.ShouldEqual, 58)
				convey.So(cfg.Match.TeamBatting, convey.ShouldEqual, "India")
				convey.So(cfg.Cache.Backend, convey.ShouldEqual, config.CacheRedis)
				convey.So(cfg.Cache.TTL, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.Cache.MaxEntries, convey.ShouldEqual, 1000)
			})

			convey.Convey("Then dismissals reach the seed", func() {
				convey.So(err, convey.ShouldBeNil)
				seed := cfg.Seed()
				convey.So(seed.Dismissed, convey.ShouldHaveLength, 1)
				convey.So(seed.Dismissed[0].Name, convey.ShouldEqual, "Yashasvi Jaiswal")
				convey.So(string(seed.Dismissed[0].DismissalMode), convey.ShouldEqual, "caught")
			})
		})

		convey.Convey("When the path option is given", func() {
			tmpFile := createTempConfigFile(`addr: ":7070"`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(ctx, noEnvFile, config.WithConfigPath(tmpFile))
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(ctx, noEnvFile, config.WithConfigPath(tmpFile))

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			cfg, err := config.Load(ctx, noEnvFile, config.WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CRICKET_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, noEnvFile)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CRICKET_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, noEnvFile)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigLoaderSecrets(t *testing.T) {
	convey.Convey("Given secrets outside the CRICKET_ namespace", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When only OPENAI_API_KEY is set", func() {
			_ = os.Setenv("OPENAI_API_KEY", "sk-env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithEnvFile(""))
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLM.APIKey, convey.ShouldEqual, "sk-env")
		})

		convey.Convey("When both keys are set", func() {
			_ = os.Setenv("OPENAI_API_KEY", "sk-env")
			_ = os.Setenv("CRICKET_LLM__API_KEY", "sk-cricket")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithEnvFile(""))
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLM.APIKey, convey.ShouldEqual, "sk-cricket")
		})

		convey.Convey("When the key comes from a dotenv file", func() {
			path := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(path, []byte("OPENAI_API_KEY=sk-dotenv\nCRICKET_TOTAL_OVERS=85\n"), 0o600), convey.ShouldBeNil)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithEnvFile(path))
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.LLM.APIKey, convey.ShouldEqual, "sk-dotenv")
			convey.So(cfg.TotalOvers, convey.ShouldEqual, 85.0)
		})

		convey.Convey("When the dotenv file is missing", func() {
			_, err := config.Load(ctx, config.WithEnvFile(filepath.Join(t.TempDir(), "nope.env")))
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CRICKET_CONFIG",
		"CRICKET_ADDR",
		"CRICKET_QUEUE_SIZE",
		"CRICKET_TOTAL_OVERS",
		"CRICKET_LLM__MODEL",
		"CRICKET_LLM__API_KEY",
		"CRICKET_POLL__INTERVAL",
		"CRICKET_MATCH__BATTER__NAME",
		"OPENAI_API_KEY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "innings-config-*.yaml")
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
