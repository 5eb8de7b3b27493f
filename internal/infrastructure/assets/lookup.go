package assets

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tg_auction/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Store resolves lot imagery from the local scans directory. Matching is
// case-insensitive over a few filename candidates derived from the lot name
// and number. A miss is not an error; the auction just runs without a picture.
type Store struct {
	scansDir     string
	baseImageURL string
}

func NewStore(scansDir, baseImageURL string) *Store {
	return &Store{
		scansDir:     scansDir,
		baseImageURL: strings.TrimRight(baseImageURL, "/"),
	}
}

var imageExts = []string{".jpg", ".png", ".jpeg"} //nolint:gochecknoglobals

func (s *Store) Lookup(ctx context.Context, name, lotNumber string) (string, string, error) {
	candidates := candidateNames(name, lotNumber)

	var found string
	err := filepath.WalkDir(s.scansDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return err
		}

		base := strings.ToLower(d.Name())
		for _, cand := range candidates {
			for _, ext := range imageExts {
				if base == cand+ext {
					found = path
					return fs.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}

	logo := s.lookupLogo()

	if found == "" {
		logger(ctx).Warn("lot image not found",
			slog.String("name", name),
			slog.String("lot_number", lotNumber),
		)
		return "", logo, nil
	}

	image, err := s.resolve(found)
	if err != nil {
		return "", "", err
	}

	return image, logo, nil
}

// lookupLogo finds the static overlay logo at the scans root, if present.
func (s *Store) lookupLogo() string {
	for _, ext := range imageExts {
		path := filepath.Join(s.scansDir, "logo"+ext)
		if _, err := os.Stat(path); err == nil {
			url, err := s.resolve(path)
			if err == nil {
				return url
			}
		}
	}
	return ""
}

func (s *Store) resolve(path string) (string, error) {
	if s.baseImageURL == "" {
		return path, nil
	}

	rel, err := filepath.Rel(s.scansDir, path)
	if err != nil {
		return "", err
	}

	return s.baseImageURL + "/" + filepath.ToSlash(rel), nil
}

func candidateNames(name, lotNumber string) []string {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	num := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lotNumber)), "/", "-")

	return []string{
		n + "_" + num,
		n + "-" + num,
		n + " " + num,
		num,
	}
}
