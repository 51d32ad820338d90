package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"barstock/internal/storage"
	"barstock/internal/util"
)

// RawStoreService archives fetched payloads under their sha256 so a bad
// refresh can be inspected later.
type RawStoreService struct {
	db     *storage.DB
	rawDir string
}

func NewRawStoreService(db *storage.DB, rawDir string) *RawStoreService {
	return &RawStoreService{db: db, rawDir: rawDir}
}

func (s *RawStoreService) Store(body RawBody) (storage.RawBodyRow, error) {
	hashBytes := sha256.Sum256(body.Body)
	hash := hex.EncodeToString(hashBytes[:])

	dir := filepath.Join(s.rawDir, util.SanitizeFilename(body.Source))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storage.RawBodyRow{}, err
	}

	rawPath := filepath.Join(dir, hash+extensionFor(body.ContentType))
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, body.Body, 0o644); err != nil {
			return storage.RawBodyRow{}, err
		}
	}

	return s.db.UpsertRawBody(hash, body.Source, body.Tab, body.ContentType, rawPath)
}

func extensionFor(contentType string) string {
	media, _, _ := mime.ParseMediaType(contentType)
	switch {
	case media == "text/csv":
		return ".csv"
	case media == "text/tab-separated-values":
		return ".tsv"
	case media == "text/html":
		return ".html"
	case media == "application/json":
		return ".json"
	case strings.Contains(media, "spreadsheetml"):
		return ".xlsx"
	default:
		return ".bin"
	}
}
