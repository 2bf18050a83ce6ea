// Package leveldat reads and writes the level.dat file of a Bedrock world: an 8 byte header followed by a
// little endian NBT compound holding the world settings.
package leveldat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Version is the storage version written to the header of level.dat files.
const Version = 10

// MaxLength is the largest level.dat body Read accepts.
const MaxLength = 64 << 20

// Data holds the level.dat fields this package reads and writes. Fields not listed are kept as they were
// read.
type Data struct {
	LevelName       string  `nbt:"LevelName"`
	StorageVersion  int32   `nbt:"StorageVersion"`
	NetworkVersion  int32   `nbt:"NetworkVersion"`
	LastPlayed      int64   `nbt:"LastPlayed"`
	RandomSeed      int64   `nbt:"RandomSeed"`
	SpawnX          int32   `nbt:"SpawnX"`
	SpawnY          int32   `nbt:"SpawnY"`
	SpawnZ          int32   `nbt:"SpawnZ"`
	Time            int64   `nbt:"Time"`
	CurrentTick     int64   `nbt:"currentTick"`
	GameType        int32   `nbt:"GameType"`
	Difficulty      int32   `nbt:"Difficulty"`
	Generator       int32   `nbt:"Generator"`
	RainTime        int32   `nbt:"rainTime"`
	RainLevel       float32 `nbt:"rainLevel"`
	LightningTime   int32   `nbt:"lightningTime"`
	LightningLevel  float32 `nbt:"lightningLevel"`
	DoDaylightCycle bool    `nbt:"dodaylightcycle"`
	DoWeatherCycle  bool    `nbt:"doweathercycle"`

	LastOpenedWithVersion          []int32 `nbt:"lastOpenedWithVersion"`
	MinimumCompatibleClientVersion []int32 `nbt:"MinimumCompatibleClientVersion"`
}

// Default returns the Data of a new flat world named name.
func Default(name string) Data {
	return Data{
		LevelName:       name,
		StorageVersion:  Version,
		LastPlayed:      time.Now().Unix(),
		SpawnY:          64,
		Generator:       2,
		GameType:        1,
		Difficulty:      2,
		DoDaylightCycle: true,
		DoWeatherCycle:  true,

		LastOpenedWithVersion:          []int32{1, 21, 60, 0, 0},
		MinimumCompatibleClientVersion: []int32{1, 21, 60, 0, 0},
	}
}

// LevelDat is a decoded level.dat file. It keeps every field read so that writing it back loses nothing
// Data does not know about.
type LevelDat struct {
	version int32
	raw     map[string]any
}

// New returns a LevelDat holding d.
func New(d Data) (*LevelDat, error) {
	l := &LevelDat{version: Version, raw: map[string]any{}}
	if err := l.Set(d); err != nil {
		return nil, err
	}
	return l, nil
}

// Read decodes a level.dat from r.
func Read(r io.Reader) (*LevelDat, error) {
	var hdr struct {
		Version int32
		Length  int32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read level.dat header: %w", err)
	}
	if hdr.Length < 0 || hdr.Length > MaxLength {
		return nil, fmt.Errorf("read level.dat: invalid length %v", hdr.Length)
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(hdr.Length)))
	if err != nil {
		return nil, fmt.Errorf("read level.dat data: %w", err)
	}
	if len(data) != int(hdr.Length) {
		return nil, fmt.Errorf("read level.dat data: %v of %v bytes: %w", len(data), hdr.Length, io.ErrUnexpectedEOF)
	}
	l := &LevelDat{version: hdr.Version}
	if err := nbt.UnmarshalEncoding(data, &l.raw, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decode level.dat: %w", err)
	}
	return l, nil
}

// ReadFile reads the level.dat file at path.
func ReadFile(path string) (*LevelDat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Version returns the storage version found in the header of the level.dat.
func (l *LevelDat) Version() int32 {
	return l.version
}

// Data decodes the known fields of the level.dat.
func (l *LevelDat) Data() (Data, error) {
	var d Data
	b, err := nbt.MarshalEncoding(l.raw, nbt.LittleEndian)
	if err != nil {
		return d, fmt.Errorf("encode level.dat: %w", err)
	}
	if err := nbt.UnmarshalEncoding(b, &d, nbt.LittleEndian); err != nil {
		return d, fmt.Errorf("decode level.dat fields: %w", err)
	}
	return d, nil
}

// Set overwrites the known fields of the level.dat with those of d.
func (l *LevelDat) Set(d Data) error {
	b, err := nbt.MarshalEncoding(d, nbt.LittleEndian)
	if err != nil {
		return fmt.Errorf("encode level.dat fields: %w", err)
	}
	var m map[string]any
	if err := nbt.UnmarshalEncoding(b, &m, nbt.LittleEndian); err != nil {
		return fmt.Errorf("decode level.dat fields: %w", err)
	}
	if l.raw == nil {
		l.raw = make(map[string]any, len(m))
	}
	for k, v := range m {
		l.raw[k] = v
	}
	return nil
}

// Write encodes the level.dat to w.
func (l *LevelDat) Write(w io.Writer) error {
	data, err := nbt.MarshalEncoding(l.raw, nbt.LittleEndian)
	if err != nil {
		return fmt.Errorf("encode level.dat: %w", err)
	}
	buf := bytes.NewBuffer(make([]byte, 0, len(data)+8))
	_ = binary.Write(buf, binary.LittleEndian, l.version)
	_ = binary.Write(buf, binary.LittleEndian, int32(len(data)))
	buf.Write(data)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write level.dat: %w", err)
	}
	return nil
}

// WriteFile writes the level.dat to path, replacing the file through a temporary file so that a failed
// write never leaves a truncated level.dat behind.
func (l *LevelDat) WriteFile(path string) error {
	buf := new(bytes.Buffer)
	if err := l.Write(buf); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write level.dat: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace level.dat: %w", err)
	}
	return nil
}
