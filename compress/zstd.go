package compress

import "github.com/klauspost/compress/zstd"

// Shared stateless encoder/decoder. EncodeAll/DecodeAll are safe for
// concurrent use on a single instance.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Zstd compresses with Zstandard (github.com/klauspost/compress).
//
// Reference embedding records are large, highly regular float arrays; zstd
// gives the best size/speed trade-off for them and is the default.
type Zstd struct{}

// Compress returns the zstd-compressed form of src.
func (Zstd) Compress(src []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, make([]byte, 0, len(src)/2)), nil
}

// Decompress returns the decompressed form of src.
func (Zstd) Decompress(src []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, nil)
}

// Name returns the unique name of the compressor ("zstd").
func (Zstd) Name() string { return "zstd" }
