package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"entrylist/internal/config"

	"github.com/rs/zerolog/log"
)

var (
	ErrMetadataFileNotFound   = errors.New("metadata file not found")
	ErrDecodeMetadataFile     = errors.New("failed to decode metadata from file")
	ErrStoredResponseTooOld   = errors.New("stored response is too old")
	ErrOpenDataFile           = errors.New("failed to open stored response data file")
	ErrFetchSourceResponse    = errors.New("error fetching response from source")
	ErrSaveResponseDir        = errors.New("failed to create directory for response files")
	ErrWriteResponseData      = errors.New("failed to write response data to file")
	ErrMarshalMetadataJSON    = errors.New("failed to marshal metadata to JSON")
	ErrWriteMetadataFile      = errors.New("failed to write metadata to file")
	ErrRemoveResponseDataFile = errors.New("failed to remove stored response data file")
	ErrRemoveResponseMetaFile = errors.New("failed to remove stored response metadata file")
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResponseMetadata describes a stored response.
type ResponseMetadata struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ResponseStore keeps downloaded bodies on disk so repeated refreshes within
// MaxAge do not hit the remote site. A disabled store always fetches.
type ResponseStore struct {
	Enabled bool
	Dir     string
	MaxAge  time.Duration
	now     func() time.Time
}

func NewResponseStore(cfg config.RefreshConfig) *ResponseStore {
	return &ResponseStore{
		Enabled: cfg.StoreResponses,
		Dir:     cfg.StorePath,
		MaxAge:  cfg.MaxAge,
		now:     time.Now,
	}
}

// Get returns the stored body for key when fresh, otherwise calls fetch and
// stores what it returns.
func (s *ResponseStore) Get(key, source, runID string, fetch func() ([]byte, error)) ([]byte, *ResponseMetadata, error) {
	if s == nil || !s.Enabled {
		body, err := fetch()
		return body, nil, err
	}

	dataFilename, metaFilename := s.filenames(key)

	body, meta, err := s.load(dataFilename, metaFilename)
	if err == nil {
		log.Info().Str("file", dataFilename).Str("run_id", meta.RunID).Msg("Using stored response")
		return body, meta, nil
	}
	log.Debug().Err(err).Str("file", dataFilename).Msg("Stored response not usable, fetching from source")

	body, err = fetch()
	if err != nil {
		return nil, nil, err
	}

	meta = &ResponseMetadata{
		RunID:       runID,
		CreatedAt:   s.now(),
		Source:      source,
		Description: "Response from " + source + " stored at " + s.now().Format(time.RFC3339),
	}
	if err := s.save(dataFilename, metaFilename, body, meta); err != nil {
		log.Err(err).Str("file", dataFilename).Msg("Failed to store response")
	}
	return body, meta, nil
}

// Remove deletes the stored response for key, if any.
func (s *ResponseStore) Remove(key string) error {
	dataFilename, metaFilename := s.filenames(key)

	if err := os.Remove(dataFilename); err != nil && !os.IsNotExist(err) {
		log.Err(err).Str("file", dataFilename).Msg("Failed to remove stored response data file")
		return ErrRemoveResponseDataFile
	}
	if err := os.Remove(metaFilename); err != nil && !os.IsNotExist(err) {
		log.Err(err).Str("file", metaFilename).Msg("Failed to remove stored response metadata file")
		return ErrRemoveResponseMetaFile
	}
	return nil
}

func (s *ResponseStore) load(dataFilename, metaFilename string) ([]byte, *ResponseMetadata, error) {
	raw, err := os.ReadFile(metaFilename)
	if err != nil {
		return nil, nil, ErrMetadataFileNotFound
	}

	meta := &ResponseMetadata{}
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, nil, ErrDecodeMetadataFile
	}

	if s.MaxAge > 0 && s.now().Sub(meta.CreatedAt) > s.MaxAge {
		return nil, meta, ErrStoredResponseTooOld
	}

	body, err := os.ReadFile(dataFilename)
	if err != nil {
		return nil, meta, ErrOpenDataFile
	}
	return body, meta, nil
}

func (s *ResponseStore) save(dataFilename, metaFilename string, body []byte, meta *ResponseMetadata) error {
	if err := os.MkdirAll(filepath.Dir(dataFilename), 0o755); err != nil {
		return ErrSaveResponseDir
	}

	f, err := os.Create(dataFilename)
	if err != nil {
		return ErrWriteResponseData
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(body)); err != nil {
		return ErrWriteResponseData
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return ErrMarshalMetadataJSON
	}
	if err := os.WriteFile(metaFilename, metaJSON, 0o644); err != nil {
		return ErrWriteMetadataFile
	}
	return nil
}

func (s *ResponseStore) filenames(key string) (dataFilename, metaFilename string) {
	base := filepath.Join(s.Dir, unsafeKeyChars.ReplaceAllString(key, "_")+"_response")
	return base + ".dat", base + ".meta.json"
}
