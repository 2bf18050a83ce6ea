package chunk

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/oriumgames/bedrockdb/block"
)

var overworld = cube.Range{-64, 319}

func testTable(t *testing.T, hashed bool) *block.Table {
	t.Helper()
	b := block.NewBuilder(hashed)
	err := b.RegisterPermutation("test:wool", 1, []block.StateEnum{
		{Name: "color", Values: []any{"red", "green", "blue", "white", "black"}},
	})
	if err != nil {
		t.Fatalf("RegisterPermutation: %v", err)
	}
	levels := make([]any, 40)
	for i := range levels {
		levels[i] = int32(i)
	}
	if err := b.RegisterPermutation("test:level", 1, []block.StateEnum{{Name: "n", Values: levels}}); err != nil {
		t.Fatalf("RegisterPermutation: %v", err)
	}
	tab, err := b.Finalise()
	if err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	return tab
}

// runtimeIDs returns every runtime ID in tab other than air.
func runtimeIDs(tab *block.Table) []uint32 {
	var rids []uint32
	tab.States(func(rid uint32, s block.State) bool {
		if s.Name != block.AirName {
			rids = append(rids, rid)
		}
		return true
	})
	return rids
}

func randomSubChunk(tab *block.Table, seed uint64, distinct int) *SubChunk {
	r := rand.New(rand.NewPCG(seed, 7))
	rids := runtimeIDs(tab)[:distinct]
	sub := NewSubChunk(tab.AirRuntimeID())
	for range 2000 {
		x, y, z := uint8(r.IntN(16)), uint8(r.IntN(16)), uint8(r.IntN(16))
		sub.SetBlock(x, y, z, 0, rids[r.IntN(len(rids))])
	}
	sub.SetBlock(2, 3, 4, 1, rids[0])
	return sub
}

func TestNetworkSubChunkRoundTrip(t *testing.T) {
	for _, hashed := range []bool{false, true} {
		tab := testTable(t, hashed)
		for _, distinct := range []int{1, 3, 20, 44} {
			sub := randomSubChunk(tab, uint64(distinct), distinct)
			data := EncodeSubChunk(sub, overworld, 5, NetworkEncoding, tab)
			dec, index, err := DecodeSubChunk(data, overworld, NetworkEncoding, tab)
			if err != nil {
				t.Fatalf("DecodeSubChunk (hashed=%v, %v values): %v", hashed, distinct, err)
			}
			if index != 5 {
				t.Fatalf("decoded index %v, want 5", index)
			}
			if !dec.Equals(sub) {
				t.Fatalf("network round trip changed sub chunk (hashed=%v, %v values)", hashed, distinct)
			}
		}
	}
}

func TestSubChunkAllDistinctRoundTrip(t *testing.T) {
	b := block.NewBuilder(false)
	levels := make([]any, 4100)
	for i := range levels {
		levels[i] = int32(i)
	}
	if err := b.RegisterPermutation("test:many", 1, []block.StateEnum{{Name: "n", Values: levels}}); err != nil {
		t.Fatalf("RegisterPermutation: %v", err)
	}
	tab, err := b.Finalise()
	if err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	rids := runtimeIDs(tab)
	sub := NewSubChunk(tab.AirRuntimeID())
	blocks := make([]uint32, 4096)
	copy(blocks, rids)
	if err := sub.SetBlocks(0, blocks); err != nil {
		t.Fatalf("SetBlocks: %v", err)
	}
	sub.SetBlock(0, 0, 0, 0, rids[4096])

	for _, e := range []Encoding{NetworkEncoding, DiskEncoding} {
		dec, _, err := DecodeSubChunk(EncodeSubChunk(sub, overworld, 4, e, tab), overworld, e, tab)
		if err != nil {
			t.Fatalf("DecodeSubChunk: %v", err)
		}
		if !dec.Equals(sub) {
			t.Fatalf("round trip changed a sub chunk of 4096 distinct blocks")
		}
	}
}

func TestDiskSubChunkTableIndependent(t *testing.T) {
	seq, hashed := testTable(t, false), testTable(t, true)
	sub := randomSubChunk(seq, 3, 30)
	sub.Compact()

	data := EncodeSubChunk(sub, overworld, 0, DiskEncoding, seq)
	dec, index, err := DecodeSubChunk(data, overworld, DiskEncoding, hashed)
	if err != nil {
		t.Fatalf("DecodeSubChunk: %v", err)
	}
	if index != 0 {
		t.Fatalf("decoded index %v, want 0", index)
	}
	for layer := range uint8(2) {
		a, b := sub.Blocks(layer), dec.Blocks(layer)
		for off := range a {
			sa, _ := seq.RuntimeIDToState(a[off])
			sb, ok := hashed.RuntimeIDToState(b[off])
			if !ok || !sa.Equal(sb) {
				t.Fatalf("layer %v voxel %v: %v decoded as %v", layer, off, sa, sb)
			}
		}
	}

	again := EncodeSubChunk(dec, overworld, 0, DiskEncoding, hashed)
	back, _, err := DecodeSubChunk(again, overworld, DiskEncoding, seq)
	if err != nil {
		t.Fatalf("DecodeSubChunk: %v", err)
	}
	if !back.Equals(sub) {
		t.Fatalf("disk round trip through a second table changed the sub chunk")
	}
}

func TestUniformLayerEncoding(t *testing.T) {
	tab := testTable(t, false)
	sub := NewSubChunk(tab.AirRuntimeID())
	sub.Layer(0)
	data := EncodeSubChunk(sub, overworld, 4, NetworkEncoding, tab)
	if !bytes.HasPrefix(data, []byte{SubChunkVersion, 1, 0, 1}) {
		t.Fatalf("unexpected uniform sub chunk header % x", data)
	}
	if len(data) > 10 {
		t.Fatalf("uniform layer encoded to %v bytes", len(data))
	}

	full := randomSubChunk(tab, 9, 40)
	if len(EncodeSubChunk(full, overworld, 4, NetworkEncoding, tab)) <= 4096/2 {
		t.Fatalf("dense sub chunk encoded suspiciously small")
	}
}

func TestDecodeSubChunkVersions(t *testing.T) {
	tab := testTable(t, true)
	sub := NewSubChunk(tab.AirRuntimeID())
	sub.SetBlock(1, 1, 1, 0, runtimeIDs(tab)[3])
	v9 := EncodeSubChunk(sub, overworld, 7, DiskEncoding, tab)

	v8 := append([]byte{8, v9[1]}, v9[3:]...)
	dec, index, err := DecodeSubChunk(v8, overworld, DiskEncoding, tab)
	if err != nil || index != 0 || !dec.Equals(sub) {
		t.Fatalf("version 8: %v, index %v", err, index)
	}
	v1 := append([]byte{1}, v9[3:]...)
	dec, _, err = DecodeSubChunk(v1, overworld, DiskEncoding, tab)
	if err != nil || !dec.Equals(sub) {
		t.Fatalf("version 1: %v", err)
	}
}

func TestDecodeSubChunkMalformed(t *testing.T) {
	tab := testTable(t, true)
	sub := randomSubChunk(tab, 4, 10)
	network := EncodeSubChunk(sub, overworld, 2, NetworkEncoding, tab)
	disk := EncodeSubChunk(sub, overworld, 2, DiskEncoding, tab)

	outOfRange := bytes.Clone(network)
	outOfRange[2] = 30

	other := testTable(t, false)
	unknownID := EncodeSubChunk(randomSubChunk(other, 4, 10), overworld, 2, NetworkEncoding, other)

	badIndex := bytes.Clone(network)
	// The first layer holds 4 bits per index and at most 11 palette entries: index 15 is out of bounds.
	badIndex[4] = 0xff

	for name, data := range map[string][]byte{
		"empty":            nil,
		"truncated":        network[:len(network)/2],
		"trailing":         append(bytes.Clone(network), 0),
		"version":          append([]byte{5}, network[1:]...),
		"flag mismatch":    disk,
		"index range":      outOfRange,
		"unknown id":       unknownID,
		"palette overflow": badIndex,
	} {
		if _, _, err := DecodeSubChunk(data, overworld, NetworkEncoding, tab); !errors.Is(err, ErrMalformed) {
			t.Errorf("%v: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestDiskDecodeUnknownState(t *testing.T) {
	big := testTable(t, false)
	small := block.DefaultTable()

	sub := NewSubChunk(big.AirRuntimeID())
	sub.SetBlock(0, 0, 0, 0, runtimeIDs(big)[1])
	data := EncodeSubChunk(sub, overworld, 0, DiskEncoding, big)

	dec, _, err := DecodeSubChunk(data, overworld, DiskEncoding, small)
	if err != nil {
		t.Fatalf("DecodeSubChunk: %v", err)
	}
	if got := dec.Block(0, 0, 0, 0); got != small.UnknownRuntimeID() {
		t.Fatalf("unknown state decoded to %v, want %v", got, small.UnknownRuntimeID())
	}
	if got := dec.Block(1, 0, 0, 0); got != small.AirRuntimeID() {
		t.Fatalf("air decoded to %v", got)
	}
}

func TestEncodeBiomesSameAsPrevious(t *testing.T) {
	c := NewChunk(0, overworld)
	data := EncodeBiomes(c, DiskEncoding)
	// One uniform storage with its palette entry, then a single byte for each of the 23 that repeat it.
	if len(data) != 5+23 {
		t.Fatalf("biomes encoded to %v bytes", len(data))
	}
	if data[5] != sameAsPrevious<<1 {
		t.Fatalf("expected same as previous marker, got %x", data[5])
	}
}

func TestChunkDiskRoundTrip(t *testing.T) {
	tab := testTable(t, false)
	c := NewChunk(tab.AirRuntimeID(), overworld)
	rids := runtimeIDs(tab)
	r := rand.New(rand.NewPCG(5, 5))
	for range 5000 {
		y := int16(r.IntN(384) - 64)
		if err := c.SetBlock(uint8(r.IntN(16)), y, uint8(r.IntN(16)), 0, rids[r.IntN(len(rids))]); err != nil {
			t.Fatalf("SetBlock: %v", err)
		}
	}
	if err := c.SetBiome(3, 100, 3, 12); err != nil {
		t.Fatalf("SetBiome: %v", err)
	}
	c.Compact()

	dec, err := DiskDecode(Encode(c, DiskEncoding, tab), overworld, tab)
	if err != nil {
		t.Fatalf("DiskDecode: %v", err)
	}
	if !dec.Equals(c) {
		t.Fatalf("disk round trip changed chunk")
	}
	if b, ok := dec.Biome(3, 100, 3); !ok || b != 12 {
		t.Fatalf("biome decoded as %v, %v", b, ok)
	}
}

func TestChunkNetworkRoundTrip(t *testing.T) {
	tab := testTable(t, true)
	c := NewChunk(tab.AirRuntimeID(), overworld)
	rid := runtimeIDs(tab)[2]
	for _, y := range []int16{-64, 0, 70} {
		if err := c.SetBlock(8, y, 8, 0, rid); err != nil {
			t.Fatalf("SetBlock: %v", err)
		}
	}
	if err := c.SetBiome(0, -60, 0, 4); err != nil {
		t.Fatalf("SetBiome: %v", err)
	}
	payload, count := NetworkEncode(c, tab)
	if count != int(c.SubIndex(70))+1 {
		t.Fatalf("encoded %v sub chunks", count)
	}
	dec, err := NetworkDecode(tab.AirRuntimeID(), payload, count, overworld, tab)
	if err != nil {
		t.Fatalf("NetworkDecode: %v", err)
	}
	if !dec.Equals(c) {
		t.Fatalf("network round trip changed chunk")
	}
}

func TestContainer(t *testing.T) {
	payloads := [][]byte{{1, 2, 3}, {}, {4}}
	b := EncodeContainer(payloads)
	if len(b) != 3*4+4 {
		t.Fatalf("container of %v bytes", len(b))
	}
	got, err := DecodeContainer(b)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if len(got) != 3 || !bytes.Equal(got[0], payloads[0]) || len(got[1]) != 0 || !bytes.Equal(got[2], payloads[2]) {
		t.Fatalf("container decoded to %v", got)
	}
	if p, err := DecodeContainer(nil); err != nil || len(p) != 0 {
		t.Fatalf("empty container decoded to %v, %v", p, err)
	}
	if _, err := DecodeContainer(b[:len(b)-1]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for truncated container, got %v", err)
	}
}

func TestBlobHash(t *testing.T) {
	payload := []byte{SubChunkVersion, 0, 0}
	if BlobHash(payload) != xxhash.Sum64(payload) {
		t.Fatalf("unexpected blob hash")
	}
}

func TestDiskDecodeUpgradesLegacyState(t *testing.T) {
	const legacyVersion int32 = 1<<24 | 18<<16 | 10<<8 | 1
	old := block.NewBuilder(false)
	err := old.RegisterCustomBlock(block.State{Name: "minecraft:stone", Properties: map[string]any{"stone_type": "granite"}, Version: legacyVersion})
	if err != nil {
		t.Fatalf("RegisterCustomBlock: %v", err)
	}
	oldTab, err := old.Finalise()
	if err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	legacy, _ := oldTab.StateToRuntimeID("minecraft:stone", map[string]any{"stone_type": "granite"})

	cur := block.NewBuilder(true)
	if err := cur.RegisterCustomBlock(block.State{Name: "minecraft:granite", Version: block.CurrentBlockVersion}); err != nil {
		t.Fatalf("RegisterCustomBlock: %v", err)
	}
	curTab, err := cur.Finalise()
	if err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	granite, _ := curTab.StateToRuntimeID("minecraft:granite", nil)

	sub := NewSubChunk(oldTab.AirRuntimeID())
	sub.SetBlock(7, 7, 7, 0, legacy)
	dec, _, err := DecodeSubChunk(EncodeSubChunk(sub, overworld, 0, DiskEncoding, oldTab), overworld, DiskEncoding, curTab)
	if err != nil {
		t.Fatalf("DecodeSubChunk: %v", err)
	}
	if got := dec.Block(7, 7, 7, 0); got != granite {
		t.Fatalf("legacy granite decoded to %v, want %v", got, granite)
	}
}
