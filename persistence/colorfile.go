package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/bfgtools/ccdbg/color"
	"github.com/bfgtools/ccdbg/internal/conv"
	"github.com/bfgtools/ccdbg/internal/hash"
	"github.com/bfgtools/ccdbg/internal/unitigcolors"
)

// MemoryAcquirer bounds Bitmap-promotion memory while decoding; satisfied by
// internal/resource.Controller.
type MemoryAcquirer = unitigcolors.MemoryAcquirer

// UnitigCountMismatchError is returned by ReadColorFile when the file's U
// does not match the caller-supplied expected unitig count: a color file
// only makes sense against the graph it was built with.
type UnitigCountMismatchError struct {
	FileUnitigs  uint32
	GraphUnitigs uint32
}

func (e *UnitigCountMismatchError) Error() string {
	return fmt.Sprintf("persistence: color file has %d unitig slots, graph has %d", e.FileUnitigs, e.GraphUnitigs)
}

// ColorFile is the in-memory form of a `.bfg_colors` companion file.
type ColorFile struct {
	ColorCount uint32
	Seeds      []uint64
	ColorNames []string
	Overflow   map[color.Head]*unitigcolors.UnitigColors
	Slots      []unitigcolors.UnitigColors
}

// WriteColorFile encodes cf to w: a magic/version header, the payload
// (U, C, H, seeds, overflow entries, dense slots, color names), and
// a trailing CRC32C checksum over everything that precedes it. The payload
// is streamed through a ChecksumWriter rather than buffered whole.
func WriteColorFile(w io.Writer, cf *ColorFile) error {
	cw := NewChecksumWriter(w)
	bw := NewBinaryWriter(cw)
	if err := bw.WriteHeader(&FileHeader{}); err != nil {
		return err
	}

	u, err := conv.IntToUint32(len(cf.Slots))
	if err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, u); err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, cf.ColorCount); err != nil {
		return err
	}
	h, err := conv.IntToUint32(len(cf.Seeds))
	if err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, h); err != nil {
		return err
	}
	if err := bw.WriteUint64Slice(cf.Seeds); err != nil {
		return err
	}

	overflowCount, err := conv.IntToUint32(len(cf.Overflow))
	if err != nil {
		return err
	}
	if err := binary.Write(cw, binary.LittleEndian, overflowCount); err != nil {
		return err
	}
	for head, uc := range cf.Overflow {
		if _, err := cw.Write(head[:]); err != nil {
			return err
		}
		if _, err := uc.WriteTo(cw); err != nil {
			return err
		}
	}

	for i := range cf.Slots {
		if _, err := cf.Slots[i].WriteTo(cw); err != nil {
			return err
		}
	}

	for _, name := range cf.ColorNames {
		if _, err := io.WriteString(cw, name); err != nil {
			return err
		}
		if _, err := cw.Write([]byte{0}); err != nil {
			return err
		}
	}

	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

// ReadColorFile decodes a `.bfg_colors` file from r, verifying its trailing
// checksum and rejecting a unitig count that doesn't match expectedU
// (pass 0 to skip that check, e.g. when inspecting a file offline). mem
// bounds the memory any Bitmap-state slot may reserve while decoding.
func ReadColorFile(r io.Reader, expectedU uint32, mem MemoryAcquirer) (*ColorFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, io.ErrUnexpectedEOF
	}

	payload := data[:len(data)-4]
	wantChecksum := binary.LittleEndian.Uint32(data[len(data)-4:])
	gotChecksum := hash.CRC32C(payload)
	if gotChecksum != wantChecksum {
		return nil, &ChecksumMismatchError{Expected: wantChecksum, Actual: gotChecksum}
	}

	br := bytes.NewReader(payload)
	reader := NewBinaryReader(br)
	if _, err := reader.ReadHeader(); err != nil {
		return nil, err
	}

	var u, colorCount, h uint32
	if err := binary.Read(br, binary.LittleEndian, &u); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &colorCount); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if expectedU != 0 && u != expectedU {
		return nil, &UnitigCountMismatchError{FileUnitigs: u, GraphUnitigs: expectedU}
	}

	seedCount, err := conv.Uint32ToInt(h)
	if err != nil {
		return nil, err
	}
	seeds, err := reader.ReadUint64Slice(seedCount)
	if err != nil {
		return nil, err
	}

	var overflowCount uint32
	if err := binary.Read(br, binary.LittleEndian, &overflowCount); err != nil {
		return nil, err
	}
	overflow := make(map[color.Head]*unitigcolors.UnitigColors, overflowCount)
	for range overflowCount {
		var head color.Head
		if _, err := io.ReadFull(br, head[:]); err != nil {
			return nil, err
		}
		uc := unitigcolors.New()
		if _, err := uc.ReadFrom(br, mem); err != nil {
			return nil, err
		}
		overflow[head] = uc
	}

	slots := make([]unitigcolors.UnitigColors, u)
	for i := range slots {
		if _, err := slots[i].ReadFrom(br, mem); err != nil {
			return nil, err
		}
	}

	var names []string
	if colorCount > 0 {
		names = make([]string, 0, colorCount)
		for range colorCount {
			name, err := readCString(br)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}

	return &ColorFile{
		ColorCount: colorCount,
		Seeds:      seeds,
		ColorNames: names,
		Overflow:   overflow,
		Slots:      slots,
	}, nil
}

func readCString(r io.ByteReader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}
