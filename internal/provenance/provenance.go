// Package provenance captures audit-grade origin metadata for deployed
// units: the raw source bytes, a cryptographic digest over exactly those
// bytes, the digest algorithm's name, and the source path.
//
// Capture is best effort. An unreadable source file yields an empty record
// and a low-severity diagnostic; provenance never gates deployability.
package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	"github.com/vk/svcstorego/internal/ctxlog"
)

// Supported digest algorithm names, recorded verbatim beside each digest so
// verifiers never have to assume an algorithm.
const (
	AlgoSHA256 = "SHA-256"
	AlgoBLAKE3 = "BLAKE3-256"
)

// Provenance records where a deployed unit came from.
type Provenance struct {
	// Source holds the raw bytes the digest was computed over.
	Source []byte
	// Path is the unit's originating file path.
	Path string
	// Hash is the hex-encoded digest of Source.
	Hash string
	// HashMethod names the algorithm that produced Hash.
	HashMethod string
}

// Empty reports whether the record carries no captured source.
func (p Provenance) Empty() bool {
	return p.Hash == ""
}

// Recorder computes digests with a fixed algorithm.
type Recorder struct {
	algo string
}

// NewRecorder returns a Recorder for the named algorithm. Unknown names are
// a programmer error.
func NewRecorder(algo string) *Recorder {
	switch algo {
	case AlgoSHA256, AlgoBLAKE3:
	default:
		panic(fmt.Sprintf("unknown digest algorithm %q", algo))
	}
	return &Recorder{algo: algo}
}

// Capture reads the source file at path and returns its provenance record.
// I/O failures are logged at debug level and produce an empty record; the
// caller proceeds either way.
func (r *Recorder) Capture(ctx context.Context, path string) Provenance {
	logger := ctxlog.FromContext(ctx)

	source, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("Ignoring source read failure, provenance will be empty.", "path", path, "error", err)
		return Provenance{}
	}

	return Provenance{
		Source:     source,
		Path:       path,
		Hash:       r.digest(source),
		HashMethod: r.algo,
	}
}

func (r *Recorder) digest(data []byte) string {
	switch r.algo {
	case AlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}
