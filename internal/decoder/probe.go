package decoder

import (
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// SourceInfo is the tag metadata of a media source, used for logging and
// session persistence. Decoding is unaffected if the probe fails.
type SourceInfo struct {
	Path   string
	Title  string
	Artist string
	Album  string
}

// ReadSourceInfo probes the source's embedded tags. The title falls back to
// the file name when the source carries no tags.
func ReadSourceInfo(path string) (*SourceInfo, error) {
	info := &SourceInfo{
		Path:  path,
		Title: filepath.Base(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return info, nil //nolint:nilerr // untagged files are not an error
	}

	if t := m.Title(); t != "" {
		info.Title = t
	}
	info.Artist = m.Artist()
	info.Album = m.Album()
	return info, nil
}
