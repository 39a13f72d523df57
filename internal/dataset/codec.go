package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Artifact layout: magic, version, column count, then each column in schema
// order as (name, entity, kind, row count, little-endian 8-byte values).
// Schema order plus fixed-width encoding makes regeneration from identical
// inputs byte-identical.
var magic = [4]byte{'S', 'V', 'D', 'C'}

const codecVersion = 1

// Encode serializes a finalized dataset into the artifact wire format.
func Encode(d *Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.Write(magic[:])
	buf.WriteByte(codecVersion)
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(d.columns))); err != nil {
		return nil, err
	}
	for _, col := range d.columns {
		if err := writeString(buf, col.Name); err != nil {
			return nil, err
		}
		if err := writeString(buf, string(col.Entity)); err != nil {
			return nil, err
		}
		buf.WriteByte(byte(col.Kind))
		switch col.Kind {
		case KindInt:
			if err := binary.Write(buf, binary.LittleEndian, uint64(len(col.ints))); err != nil {
				return nil, err
			}
			for _, v := range col.ints {
				if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
					return nil, err
				}
			}
		case KindFloat:
			if err := binary.Write(buf, binary.LittleEndian, uint64(len(col.floats))); err != nil {
				return nil, err
			}
			for _, v := range col.floats {
				if err := binary.Write(buf, binary.LittleEndian, math.Float64bits(v)); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("column %s has unknown kind %d", col.Name, col.Kind)
		}
	}
	return buf.Bytes(), nil
}

// Decode restores a dataset from the artifact wire format, re-validating it
// against the canonical schema.
func Decode(payload []byte) (*Dataset, error) {
	r := bytes.NewReader(payload)
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil || m != magic {
		return nil, fmt.Errorf("not a dataset artifact")
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != codecVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", version)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read column count: %w", err)
	}

	b := NewBuilder()
	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read column name: %w", err)
		}
		if _, err := readString(r); err != nil { // entity, re-derived from schema
			return nil, fmt.Errorf("read column entity: %w", err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read column kind: %w", err)
		}
		var rows uint64
		if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
			return nil, fmt.Errorf("read row count: %w", err)
		}
		// The remaining payload bounds the row count; allocating from an
		// unchecked count would let a corrupted artifact exhaust memory.
		if rows > uint64(r.Len())/8 {
			return nil, fmt.Errorf("column %s claims %d rows, %d bytes remain", name, rows, r.Len())
		}
		switch Kind(kind) {
		case KindInt:
			values := make([]int64, rows)
			if err := binary.Read(r, binary.LittleEndian, values); err != nil {
				return nil, fmt.Errorf("read %s values: %w", name, err)
			}
			if err := b.SetInts(name, values); err != nil {
				return nil, err
			}
		case KindFloat:
			bits := make([]uint64, rows)
			if err := binary.Read(r, binary.LittleEndian, bits); err != nil {
				return nil, fmt.Errorf("read %s values: %w", name, err)
			}
			values := make([]float64, rows)
			for j, u := range bits {
				values[j] = math.Float64frombits(u)
			}
			if err := b.SetFloats(name, values); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("column %s has unknown kind %d", name, kind)
		}
	}
	return b.Finalize()
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string too long")
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
