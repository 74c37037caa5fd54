package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xxxsen/newsdigest/internal/model"
)

// The persisted index is a pair of artifacts: a binary vector blob and a
// JSON metadata list. They are only meaningful together; the codec refuses
// mismatched pairs at load time.

var blobMagic = [4]byte{'N', 'D', 'I', 'X'}

const blobVersion = uint32(1)

type indexMeta struct {
	Model     string                  `json:"model"`
	Dim       int                     `json:"dim"`
	Count     int                     `json:"count"`
	BuiltAt   time.Time               `json:"built_at"`
	Snapshots []model.ArticleSnapshot `json:"snapshots"`
}

func encodeBlob(ix *flatIndex) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(blobMagic[:]); err != nil {
		return nil, err
	}
	header := []uint32{blobVersion, uint32(ix.dim), uint32(len(ix.vectors))}
	for _, v := range header {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for _, vec := range ix.vectors {
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeBlob(r io.Reader) (int, [][]float32, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, fmt.Errorf("read blob magic: %w", err)
	}
	if magic != blobMagic {
		return 0, nil, fmt.Errorf("bad blob magic %q", magic)
	}
	var version, dim, count uint32
	for _, dst := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return 0, nil, fmt.Errorf("read blob header: %w", err)
		}
	}
	if version != blobVersion {
		return 0, nil, fmt.Errorf("unsupported blob version %d", version)
	}
	if dim == 0 {
		return 0, nil, fmt.Errorf("blob dimension is zero")
	}
	vectors := make([][]float32, 0, count)
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return 0, nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return int(dim), vectors, nil
}

func encodeMeta(ix *flatIndex, modelName string, builtAt time.Time) ([]byte, error) {
	meta := indexMeta{
		Model:     modelName,
		Dim:       ix.dim,
		Count:     len(ix.vectors),
		BuiltAt:   builtAt,
		Snapshots: ix.snapshots,
	}
	return json.Marshal(meta)
}

func decodeMeta(r io.Reader) (*indexMeta, error) {
	var meta indexMeta
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode index metadata: %w", err)
	}
	return &meta, nil
}

// assemble recombines a decoded pair, verifying the two artifacts describe
// the same build.
func assemble(dim int, vectors [][]float32, meta *indexMeta) (*flatIndex, error) {
	if meta.Dim != dim {
		return nil, fmt.Errorf("metadata dim %d != blob dim %d", meta.Dim, dim)
	}
	if meta.Count != len(vectors) {
		return nil, fmt.Errorf("metadata count %d != blob count %d", meta.Count, len(vectors))
	}
	return newFlatIndex(dim, vectors, meta.Snapshots)
}
