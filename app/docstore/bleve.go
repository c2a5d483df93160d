package docstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"

	"github.com/mahesh-hegde/hsrdict/app/dictionary"
)

const bleveIndexName = "hsrdict.bleve"

// OpenBleveIndex opens the index in dataDir, creating an empty one on first
// use.
func OpenBleveIndex(dataDir string) (bleve.Index, error) {
	indexPath := filepath.Join(dataDir, bleveIndexName)

	_, err := os.Stat(indexPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("creating new bleve index", "path", indexPath)
		index, err := bleve.New(indexPath, dictionary.NewBleveIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create new bleve index: %w", err)
		}
		return index, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat bleve index: %w", err)
	}

	index, err := bleve.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bleve index: %w", err)
	}
	slog.Info("opened existing bleve index", "path", indexPath)
	return index, nil
}
