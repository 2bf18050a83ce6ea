package leveldat

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/go-cmp/cmp"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

func TestLevelDatRoundTrip(t *testing.T) {
	want := Default("round trip")
	want.RandomSeed = 1234
	want.SpawnX, want.SpawnZ = -10, 300

	l, err := New(want)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	buf := new(bytes.Buffer)
	if err := l.Write(buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw := buf.Bytes()
	if v := int32(binary.LittleEndian.Uint32(raw)); v != Version {
		t.Fatalf("header version %v, want %v", v, Version)
	}
	if n := int(binary.LittleEndian.Uint32(raw[4:])); n != len(raw)-8 {
		t.Fatalf("header length %v, want %v", n, len(raw)-8)
	}

	dec, err := Read(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, err := dec.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("level.dat changed (-want +got):\n%v", diff)
	}
}

func TestLevelDatKeepsUnknownFields(t *testing.T) {
	data, err := nbt.MarshalEncoding(map[string]any{
		"LevelName":       "old",
		"experiments":     map[string]any{"data_driven_items": uint8(1)},
		"commandsEnabled": uint8(1),
	}, nbt.LittleEndian)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, int32(9))
	_ = binary.Write(buf, binary.LittleEndian, int32(len(data)))
	buf.Write(data)

	l, err := Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if l.Version() != 9 {
		t.Fatalf("Version() = %v, want 9", l.Version())
	}
	d, err := l.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	d.LevelName = "new"
	if err := l.Set(d); err != nil {
		t.Fatalf("Set: %v", err)
	}

	path := filepath.Join(t.TempDir(), "level.dat")
	if err := l.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var m map[string]any
	if err := nbt.UnmarshalEncoding(f[8:], &m, nbt.LittleEndian); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["LevelName"] != "new" {
		t.Fatalf("LevelName = %v", m["LevelName"])
	}
	if m["commandsEnabled"] != uint8(1) {
		t.Fatalf("unknown field lost: %v", m["commandsEnabled"])
	}
	if _, ok := m["experiments"].(map[string]any); !ok {
		t.Fatalf("unknown compound lost: %v", m["experiments"])
	}
}

func TestReadTruncated(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte{10, 0, 0, 0, 50, 0, 0, 0, 10})); err == nil {
		t.Fatalf("expected error for truncated level.dat")
	}
	if _, err := Read(bytes.NewReader([]byte{10, 0})); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestReadLengthLimit(t *testing.T) {
	hdr := binary.LittleEndian.AppendUint32(nil, Version)
	hdr = binary.LittleEndian.AppendUint32(hdr, 0x7fffffff)
	if _, err := Read(bytes.NewReader(append(hdr, 10, 0, 0))); err == nil {
		t.Fatalf("expected error for length above %v", MaxLength)
	}
	hdr = binary.LittleEndian.AppendUint32(nil, Version)
	hdr = binary.LittleEndian.AppendUint32(hdr, MaxLength)
	if _, err := Read(bytes.NewReader(append(hdr, 10, 0, 0))); err == nil {
		t.Fatalf("expected error for body shorter than its length")
	}
}

func TestSettings(t *testing.T) {
	var d Data
	d.SetSettings(&world.Settings{
		Name:            "settings",
		Spawn:           cube.Pos{1, 70, -3},
		Time:            6000,
		TimeCycle:       true,
		Raining:         true,
		RainTime:        200,
		CurrentTick:     99,
		DefaultGameMode: world.GameModeCreative,
		Difficulty:      world.DifficultyHard,
	})
	if d.SpawnY != 70 || d.RainLevel != 1 || d.LightningLevel != 0 {
		t.Fatalf("unexpected data %+v", d)
	}
	s := d.Settings()
	if s.Name != "settings" || s.Spawn != (cube.Pos{1, 70, -3}) || !s.Raining || s.Thundering || s.RainTime != 200 {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.DefaultGameMode != world.GameModeCreative || s.Difficulty != world.DifficultyHard {
		t.Fatalf("game mode or difficulty lost")
	}
}
