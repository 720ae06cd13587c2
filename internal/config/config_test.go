package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDevicemapFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devicemap.json")
	const contents = `{
		"AA:BB:CC:DD:EE:FF": {"tag": "living-room", "sensor_if": "RuuvitagDF3"},
		"11:22:33:44:55:66": {"tag": "office"}
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ParseDevicemapFile(path)
	if err != nil {
		t.Fatalf("ParseDevicemapFile: %v", err)
	}

	livingRoom := got["AA:BB:CC:DD:EE:FF"]
	if livingRoom.Tag != "living-room" || livingRoom.SensorIf != "RuuvitagDF3" {
		t.Errorf("living-room entry = %+v", livingRoom)
	}

	office := got["11:22:33:44:55:66"]
	if office.Tag != "office" || office.SensorIf != "auto" {
		t.Errorf("office entry (missing sensor_if should default to \"auto\") = %+v", office)
	}
}

func TestParseDevicemapFileRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devicemap.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseDevicemapFile(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestParseDevicemapFileMissingFile(t *testing.T) {
	if _, err := ParseDevicemapFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParsePositionalDevices(t *testing.T) {
	got := ParsePositionalDevices([]string{
		"AA:BB:CC:DD:EE:01",
		"AA:BB:CC:DD:EE:02,kitchen",
		"AA:BB:CC:DD:EE:03,garage,RuuvitagDF2",
		"not-a-mac",
		"",
	})

	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got["AA:BB:CC:DD:EE:01"].Tag != "AA:BB:CC:DD:EE:01" || got["AA:BB:CC:DD:EE:01"].SensorIf != "auto" {
		t.Errorf("bare address entry = %+v", got["AA:BB:CC:DD:EE:01"])
	}
	if got["AA:BB:CC:DD:EE:02"].Tag != "kitchen" || got["AA:BB:CC:DD:EE:02"].SensorIf != "auto" {
		t.Errorf("address,tag entry = %+v", got["AA:BB:CC:DD:EE:02"])
	}
	if got["AA:BB:CC:DD:EE:03"].Tag != "garage" || got["AA:BB:CC:DD:EE:03"].SensorIf != "RuuvitagDF2" {
		t.Errorf("address,tag,sensor_if entry = %+v", got["AA:BB:CC:DD:EE:03"])
	}
	if _, ok := got["not-a-mac"]; ok {
		t.Error("a malformed address should be skipped, not inserted")
	}
}

func TestNewMergesFileAndPositionalWithPositionalWinning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devicemap.json")
	const contents = `{"AA:BB:CC:DD:EE:01": {"tag": "from-file", "sensor_if": "RuuvitagDF3"}}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := New(path, []string{"AA:BB:CC:DD:EE:01,from-cli,RuuvitagDF2", "AA:BB:CC:DD:EE:02"}, false, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !cfg.Auto {
		t.Error("Auto should be true when --manual is false")
	}
	if cfg.LastSeenForget != 10*time.Second {
		t.Errorf("LastSeenForget = %v, want 10s", cfg.LastSeenForget)
	}

	got := cfg.AddressMap["AA:BB:CC:DD:EE:01"]
	if got.Tag != "from-cli" || got.SensorIf != "RuuvitagDF2" {
		t.Errorf("positional entry should override file entry for the same MAC: %+v", got)
	}
	if _, ok := cfg.AddressMap["AA:BB:CC:DD:EE:02"]; !ok {
		t.Error("positional-only entry missing from merged map")
	}
}

func TestNewManualFlagInvertsAuto(t *testing.T) {
	cfg, err := New("", nil, true, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Auto {
		t.Error("Auto should be false when --manual is true")
	}
}

func TestSensorConfTagDefaultsToAddress(t *testing.T) {
	cfg := SensorConf{AddressMap: map[string]SensorInfo{
		"AA:BB": {Tag: "kitchen"},
	}}
	if got := cfg.Tag("AA:BB"); got != "kitchen" {
		t.Errorf("Tag(AA:BB) = %q, want kitchen", got)
	}
	if got := cfg.Tag("unmapped"); got != "unmapped" {
		t.Errorf("Tag(unmapped) = %q, want unmapped", got)
	}
}

func TestSensorConfSensorIf(t *testing.T) {
	cfg := SensorConf{AddressMap: map[string]SensorInfo{
		"AA:BB": {SensorIf: "RuuvitagDF3"},
	}}
	if name, ok := cfg.SensorIf("AA:BB"); !ok || name != "RuuvitagDF3" {
		t.Errorf("SensorIf(AA:BB) = (%q, %v)", name, ok)
	}
	if _, ok := cfg.SensorIf("unmapped"); ok {
		t.Error("SensorIf(unmapped) should report ok=false")
	}
}
