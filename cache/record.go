package cache

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hupe1980/escomatch/codec"
	"github.com/hupe1980/escomatch/compress"
	"github.com/hupe1980/escomatch/taxonomy"
)

// Record envelope layout:
//
//	[4]byte  magic "ESCR"
//	uint8    format version
//	uint8    codec name length, followed by the name
//	uint8    compressor name length, followed by the name
//	[]byte   compressed, codec-encoded payload
//
// The envelope names the codec and compressor so a record written with one
// configuration stays readable after the defaults change.
var recordMagic = [4]byte{'E', 'S', 'C', 'R'}

const recordVersion = 1

var errMalformedRecord = errors.New("malformed cache record")

// record is the persisted payload of one (category, model) cache entry.
// Vectors[i] is the embedding of the entity with IDs[i].
type record struct {
	Category  taxonomy.Category `json:"category"`
	ModelName string            `json:"model_name"`
	Dimension int               `json:"dimension"`
	IDs       []string          `json:"ids"`
	Vectors   [][]float32       `json:"vectors"`
}

// sanityCheck verifies that the record covers exactly the given entity set.
func (r *record) sanityCheck(entities []taxonomy.Entity) error {
	if len(r.IDs) != len(r.Vectors) {
		return fmt.Errorf("%w: %d ids but %d vectors", errMalformedRecord, len(r.IDs), len(r.Vectors))
	}
	if len(r.IDs) != len(entities) {
		return fmt.Errorf("%w: record has %d entities, snapshot has %d", ErrSnapshotMismatch, len(r.IDs), len(entities))
	}

	recorded := make(map[string]struct{}, len(r.IDs))
	for _, id := range r.IDs {
		recorded[id] = struct{}{}
	}
	for _, e := range entities {
		if _, ok := recorded[e.ID]; !ok {
			return fmt.Errorf("%w: entity %s missing from record", ErrSnapshotMismatch, e.ID)
		}
	}
	return nil
}

func encodeRecord(rec *record, c codec.Codec, comp compress.Compressor) ([]byte, error) {
	payload, err := c.Marshal(rec)
	if err != nil {
		return nil, err
	}

	compressed, err := comp.Compress(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(recordMagic[:])
	buf.WriteByte(recordVersion)

	for _, name := range []string{c.Name(), comp.Name()} {
		if len(name) > 255 {
			return nil, fmt.Errorf("name %q too long", name)
		}
		buf.WriteByte(byte(len(name)))
		buf.WriteString(name)
	}

	buf.Write(compressed)
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*record, error) {
	if len(data) < len(recordMagic)+1 || !bytes.Equal(data[:4], recordMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", errMalformedRecord)
	}
	if v := data[4]; v != recordVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errMalformedRecord, v)
	}
	rest := data[5:]

	codecName, rest, err := readName(rest)
	if err != nil {
		return nil, err
	}
	compName, rest, err := readName(rest)
	if err != nil {
		return nil, err
	}

	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", errMalformedRecord, codecName)
	}
	comp, ok := compress.ByName(compName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown compressor %q", errMalformedRecord, compName)
	}

	payload, err := comp.Decompress(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}

	rec := new(record)
	if err := c.Unmarshal(payload, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRecord, err)
	}
	return rec, nil
}

func readName(data []byte) (string, []byte, error) {
	if len(data) < 1 {
		return "", nil, fmt.Errorf("%w: truncated header", errMalformedRecord)
	}
	n := int(data[0])
	if len(data) < 1+n {
		return "", nil, fmt.Errorf("%w: truncated header", errMalformedRecord)
	}
	return string(data[1 : 1+n]), data[1+n:], nil
}
