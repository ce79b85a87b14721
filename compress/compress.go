// Package compress centralizes cache record payload compression.
//
// Like codecs, compression is a compatibility boundary: the cache record
// envelope stores the compressor name, so records are opened by selecting the
// same compressor by name.
package compress

// Compressor compresses and decompresses byte slices.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Name() string
}

// ByName returns a built-in compressor by its stable name.
func ByName(name string) (Compressor, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// None is a pass-through compressor.
type None struct{}

// Compress returns src unchanged.
func (None) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress returns src unchanged.
func (None) Decompress(src []byte) ([]byte, error) { return src, nil }

// Name returns the unique name of the compressor ("none").
func (None) Name() string { return "none" }

// Default is the default compressor used for cache records.
var Default Compressor = Zstd{}
