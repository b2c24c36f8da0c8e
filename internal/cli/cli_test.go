package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/Pacer/internal/config"
	"github.com/SmitUplenchwar2687/Pacer/internal/record"
	"github.com/SmitUplenchwar2687/Pacer/internal/sim"
	"github.com/SmitUplenchwar2687/Pacer/internal/source"
)

const sensorFixture = `TIMESTAMP,LATITUDE,LONGITUDE,FREEWAY_ID,FREEWAY_DIR,LANE,SPEED
2008-11-01 00:00:00,32.749679,-117.155519,163,S,1,71.2
2008-11-01 00:00:00,32.780141,-117.09391,8,W,2,65.4
2008-11-01 00:00:02,32.749679,-117.155519,163,S,1,70.8
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func clearPacerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvSpeedFactor, config.EnvTopic, config.EnvInput, config.EnvTransport,
		config.EnvRedisAddr, config.EnvKafkaBrokers, config.EnvMonitorAddr,
	} {
		t.Setenv(key, "")
	}
}

// unsetEnv removes key for the duration of the test so a dotenv file can set it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("Unsetenv(%s) error = %v", key, err)
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	envFile := writeFixture(t, "pacer.env", "")
	cmd.SetArgs(append(args, "--env-file", envFile))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSimulateCmd_StdoutTransport(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)

	// --env-file must exist when set explicitly, so use the default here.
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"simulate", "--input", input, "--speed-factor", "1e9", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("published %d lines, want 3:\n%s", len(lines), stdout.String())
	}
	want := []string{"2008-11-01 00:00:00", "2008-11-01 00:00:00", "2008-11-01 00:00:02"}
	for i, line := range lines {
		var rec record.SensorRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if rec.Timestamp != want[i] {
			t.Errorf("line %d timestamp = %q, want %q", i, rec.Timestamp, want[i])
		}
	}
	if !strings.Contains(stdout.String(), `"freeway_id":8`) {
		t.Errorf("second record missing freeway_id 8:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), `"records": 3`) {
		t.Errorf("summary missing record count:\n%s", stderr.String())
	}
}

func TestSimulateCmd_CamelCaseFlag(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)

	stdout, stderr, err := execute(t, "simulate", "--input", input, "--speedFactor", "1e9", "--createTopic=false")
	if err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, stderr)
	}
	if got := strings.Count(stdout, "\n"); got != 3 {
		t.Errorf("published %d records, want 3", got)
	}
}

func TestSimulateCmd_EnvFile(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)
	unsetEnv(t, config.EnvSpeedFactor)
	unsetEnv(t, config.EnvInput)
	envFile := writeFixture(t, "custom.env", "PACER_SPEED_FACTOR=1e9\nPACER_INPUT="+input+"\n")

	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--env-file", envFile})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if got := strings.Count(stdout.String(), "\n"); got != 3 {
		t.Errorf("published %d records, want 3", got)
	}
}

func TestRootCmd_MissingExplicitEnvFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"generate", "config", "--output", filepath.Join(t.TempDir(), "p.json"),
		"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for a missing --env-file")
	}
}

func TestSimulateCmd_RejectsInvalidSpeed(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)

	for _, speed := range []string{"0", "-5", "NaN"} {
		t.Run(speed, func(t *testing.T) {
			var stdout bytes.Buffer
			cmd := NewRootCmd()
			cmd.SetOut(&stdout)
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"simulate", "--input", input, "--speed-factor=" + speed})
			err := cmd.Execute()
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", err)
			}
			if stdout.Len() != 0 {
				t.Errorf("nothing should be published, got %q", stdout.String())
			}
		})
	}
}

func TestSimulateCmd_MissingSpeedFactor(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--input", input})
	if err := cmd.Execute(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestSimulateCmd_ConfigFileAndEnv(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)
	cfgPath := writeFixture(t, "pacer.yaml", `simulation:
  input: `+input+`
  speed_factor: 1000000000
transport:
  kind: stdout
  topic: from-file
`)
	t.Setenv(config.EnvTopic, "from-env")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"simulate", "--config", cfgPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, stderr.String())
	}
	if got := strings.Count(stdout.String(), "\n"); got != 3 {
		t.Errorf("published %d records, want 3", got)
	}
	if !strings.Contains(stderr.String(), "topic=from-env") {
		t.Errorf("env topic should override the file:\n%s", stderr.String())
	}
}

func TestSimulateCmd_MalformedRecord(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", `TIMESTAMP,LATITUDE,LONGITUDE,FREEWAY_ID,FREEWAY_DIR,LANE,SPEED
2008-11-01 00:00:00,32.749679,-117.155519,163,S,1,71.2
2008-11-01 00:00:01,not-a-number,-117.09391,8,W,2,65.4
`)

	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--input", input, "--speed-factor", "1e9"})
	err := cmd.Execute()

	var recErr *sim.RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("error = %v, want *sim.RecordError", err)
	}
	if recErr.Position != 2 {
		t.Errorf("position = %d, want 2", recErr.Position)
	}
	if !errors.Is(err, record.ErrMalformed) {
		t.Errorf("error should match record.ErrMalformed: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("no batch should be published before the failure, got %q", stdout.String())
	}
}

func TestSimulateCmd_MissingInput(t *testing.T) {
	clearPacerEnv(t)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--input", filepath.Join(t.TempDir(), "missing.csv"), "--speed-factor", "60"})
	if err := cmd.Execute(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want os.ErrNotExist", err)
	}
}

func TestSimulateCmd_UnknownTransport(t *testing.T) {
	clearPacerEnv(t)
	input := writeFixture(t, "sensors.csv", sensorFixture)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"simulate", "--input", input, "--speed-factor", "60", "--transport", "carrier-pigeon"})
	if err := cmd.Execute(); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestTopicEnsureCmd_Stdout(t *testing.T) {
	clearPacerEnv(t)

	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"topic", "ensure", "--topic", "sandiego", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("topic ensure failed: %v", err)
	}

	var out struct {
		Topic struct {
			Name      string `json:"name"`
			Transport string `json:"transport"`
		} `json:"topic"`
		Created bool `json:"created"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if out.Topic.Name != "sandiego" || out.Topic.Transport != "stdout" {
		t.Errorf("topic = %+v, want sandiego on stdout", out.Topic)
	}
	if out.Created {
		t.Error("stdout topics always exist")
	}
}

func TestGenerateDataCmd_Readable(t *testing.T) {
	for _, pattern := range []string{"steady", "burst", "ramp"} {
		t.Run(pattern, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sensors.csv.gz")

			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"generate", "data", "--output", path, "--count", "50",
				"--duration", "10m", "--pattern", pattern, "--seed", "7"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("generate data failed: %v", err)
			}

			src, err := source.Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer src.Close()

			var (
				n    int
				prev time.Time
			)
			for {
				line, err := src.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				rec, err := record.Parse(line)
				if err != nil {
					t.Fatalf("record %d: %v", n+1, err)
				}
				if rec.ObservedAt().Before(prev) {
					t.Fatalf("record %d at %s is before %s", n+1, rec.ObservedAt(), prev)
				}
				prev = rec.ObservedAt()
				n++
			}
			if n != 50 {
				t.Errorf("read %d records, want 50", n)
			}

			header, err := src.Header()
			if err != nil {
				t.Fatalf("Header() error = %v", err)
			}
			if string(header) != sensorHeader {
				t.Errorf("header = %q, want %q", header, sensorHeader)
			}
		})
	}
}

func TestGenerateDataCmd_SeedIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv"} {
		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"generate", "data", "--output", filepath.Join(dir, name), "--count", "20", "--seed", "42"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("generate data failed: %v", err)
		}
	}
	a, _ := os.ReadFile(filepath.Join(dir, "a.csv"))
	b, _ := os.ReadFile(filepath.Join(dir, "b.csv"))
	if !bytes.Equal(a, b) {
		t.Error("same seed should produce the same log")
	}
}

func TestGenerateConfigCmd(t *testing.T) {
	for _, name := range []string{"pacer.json", "pacer.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs([]string{"generate", "config", "--output", path})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("generate config failed: %v", err)
			}

			cfg, err := config.LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("example config should validate: %v", err)
			}
			if cfg.Simulation.SpeedFactor != 60 {
				t.Errorf("speed factor = %v, want 60", cfg.Simulation.SpeedFactor)
			}
		})
	}
}

func TestNormalizeFlagName(t *testing.T) {
	tests := map[string]string{
		"speedFactor":  "speed-factor",
		"speed-factor": "speed-factor",
		"speed_factor": "speed-factor",
		"redisAddr":    "redis-addr",
		"topic":        "topic",
		"createTopic":  "create-topic",
		"logLevel":     "log-level",
	}
	for in, want := range tests {
		if got := string(normalizeFlagName(nil, in)); got != want {
			t.Errorf("normalizeFlagName(%q) = %q, want %q", in, got, want)
		}
	}
}
