// Package storage keeps payment proofs and course QR codes on local disk, with
// an optional Cloudinary mirror for proofs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"coursebot/pkg/cloudinary"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	qrDir        = "qr_codes"
	mirrorFolder = "coursebot/proofs"
)

type SavedProof struct {
	Filename string
	URL      string // mirror URL, empty when mirroring is off or failed
}

// ProofStore writes files under dir. Proofs are never deleted.
type ProofStore struct {
	dir    string
	mirror cloudinary.Uploader
	log    *zap.Logger
	now    func() time.Time
}

// NewProofStore creates dir and its qr_codes subdirectory. mirror may be nil.
func NewProofStore(dir string, mirror cloudinary.Uploader, log *zap.Logger) (*ProofStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, qrDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ProofStore{dir: dir, mirror: mirror, log: log, now: time.Now}, nil
}

// ProofFilename builds {telegramId}_{YYYYMMDDHHMMSS}_{8 random}.{ext}.
func ProofFilename(telegramID int64, at time.Time, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s_%s.%s", telegramID, at.Format("20060102150405"), suffix, ext)
}

// Save writes the proof and, when configured, mirrors it. A mirror failure is
// logged and does not fail the save.
func (s *ProofStore) Save(ctx context.Context, telegramID int64, data []byte, ext string) (SavedProof, error) {
	if len(data) == 0 {
		return SavedProof{}, ErrEmptyProof
	}
	name := ProofFilename(telegramID, s.now(), ext)
	if err := writeNew(filepath.Join(s.dir, name), data); err != nil {
		return SavedProof{}, fmt.Errorf("write proof: %w", err)
	}
	saved := SavedProof{Filename: name}
	if s.mirror != nil {
		publicID := strings.TrimSuffix(name, filepath.Ext(name))
		url, err := s.mirror.UploadImage(ctx, bytes.NewReader(data), mirrorFolder, publicID)
		if err != nil {
			s.log.Warn("mirror proof", zap.String("file", name), zap.Error(err))
		} else {
			saved.URL = url
		}
	}
	return saved, nil
}

// SaveQR stores a QR image for a course and returns its filename.
func (s *ProofStore) SaveQR(courseID uint, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyProof
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := "course_" + strconv.FormatUint(uint64(courseID), 10) + "_" + suffix + "." + ext
	if err := writeNew(filepath.Join(s.dir, qrDir, name), data); err != nil {
		return "", fmt.Errorf("write qr: %w", err)
	}
	return name, nil
}

// ProofPath resolves a stored proof filename, rejecting anything that is not a plain name.
func (s *ProofStore) ProofPath(name string) (string, bool) {
	return s.lookup(s.dir, name)
}

// QRPath resolves a course QR filename and reports whether the file exists.
func (s *ProofStore) QRPath(name string) (string, bool) {
	return s.lookup(filepath.Join(s.dir, qrDir), name)
}

func (s *ProofStore) lookup(dir, name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", false
	}
	p := filepath.Join(dir, name)
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return p, true
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
