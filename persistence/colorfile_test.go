package persistence

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
)

func TestColorFile_RoundTrip(t *testing.T) {
	slot0 := unitigcolors.New()
	require.NoError(t, slot0.Add(0, 0, 4, 4, nil))
	slot1 := unitigcolors.New()
	require.NoError(t, slot1.Add(1, 0, 1, 4, nil))

	var head color.Head
	head[0] = 0xAA
	overflowUC := unitigcolors.New()
	require.NoError(t, overflowUC.Add(0, 0, 1, 4, nil))

	cf := &ColorFile{
		ColorCount: 2,
		Seeds:      []uint64{11, 22, 33},
		ColorNames: []string{"reads1.fq", "reads2.fq"},
		Overflow:   map[color.Head]*unitigcolors.UnitigColors{head: overflowUC},
		Slots:      []unitigcolors.UnitigColors{*slot0, *slot1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteColorFile(&buf, cf))

	got, err := ReadColorFile(bytes.NewReader(buf.Bytes()), 2, nil)
	require.NoError(t, err)

	assert.Equal(t, cf.ColorCount, got.ColorCount)
	assert.Equal(t, cf.Seeds, got.Seeds)
	assert.Equal(t, cf.ColorNames, got.ColorNames)
	require.Len(t, got.Slots, 2)
	assert.Equal(t, slot0.Size(), got.Slots[0].Size())
	assert.Equal(t, slot1.Size(), got.Slots[1].Size())
	require.Contains(t, got.Overflow, head)
	assert.Equal(t, overflowUC.Size(), got.Overflow[head].Size())
}

func TestColorFile_RejectsUnitigCountMismatch(t *testing.T) {
	cf := &ColorFile{
		Slots: []unitigcolors.UnitigColors{*unitigcolors.New()},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteColorFile(&buf, cf))

	_, err := ReadColorFile(bytes.NewReader(buf.Bytes()), 99, nil)
	require.Error(t, err)
	var mismatch *UnitigCountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint32(1), mismatch.FileUnitigs)
	assert.Equal(t, uint32(99), mismatch.GraphUnitigs)
}

func TestColorFile_RejectsCorruption(t *testing.T) {
	cf := &ColorFile{Slots: []unitigcolors.UnitigColors{*unitigcolors.New()}}
	var buf bytes.Buffer
	require.NoError(t, WriteColorFile(&buf, cf))

	corrupted := buf.Bytes()
	corrupted[10] ^= 0xFF

	_, err := ReadColorFile(bytes.NewReader(corrupted), 1, nil)
	require.Error(t, err)
	var mismatch *ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
}
