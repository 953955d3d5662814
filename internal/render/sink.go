package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ostr00000/overwatch/internal/common/trenderrors"
	"github.com/ostr00000/overwatch/internal/trending"
)

// FileSink writes rendered artifacts to the filesystem:
//
//	<prefix>/<subsystem>/json/<trend>.json
//	<prefix>/<subsystem>/img/<trend>.<ext>
type FileSink struct {
	Prefix         string
	ImageExtension string
}

func NewFileSink(prefix, imageExtension string) *FileSink {
	if imageExtension == "" {
		imageExtension = "png"
	}
	return &FileSink{Prefix: prefix, ImageExtension: imageExtension}
}

func (s *FileSink) WriteArtifacts(subsystem, trend string, artifacts trending.Artifacts) error {
	jsonPath := s.JSONPath(subsystem, trend)
	if err := writeFile(jsonPath, artifacts.JSON); err != nil {
		return errors.WithStack(&trenderrors.ErrRender{Trend: trend, Artifact: "json", Cause: err})
	}
	imagePath := s.ImagePath(subsystem, trend)
	if err := writeFile(imagePath, artifacts.Image); err != nil {
		return errors.WithStack(&trenderrors.ErrRender{Trend: trend, Artifact: "image", Cause: err})
	}
	return nil
}

func (s *FileSink) JSONPath(subsystem, trend string) string {
	return filepath.Join(s.Prefix, subsystem, "json", SafeName(trend)+".json")
}

func (s *FileSink) ImagePath(subsystem, trend string) string {
	return filepath.Join(s.Prefix, subsystem, "img", fmt.Sprintf("%s.%s", SafeName(trend), s.ImageExtension))
}

// SafeName replaces slashes with underscores so a trend name can be used
// safely as a file name.
func SafeName(trend string) string {
	return strings.ReplaceAll(trend, "/", "_")
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
