package render

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// PipelineCachePath returns the cache file for this physical device, or ""
// when no cache directory is configured. The file is named after the
// device's pipeline cache UUID, so a driver or GPU change starts a new file.
func (c *DeviceContext) PipelineCachePath() string {
	if c.cacheDir == "" {
		return ""
	}
	return filepath.Join(c.cacheDir, "pipeline-"+c.CacheUUID.String()+".bin")
}

// LoadPipelineCache reads the cache data at path. An empty path or a missing
// file yields no data and no error.
func LoadPipelineCache(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read pipeline cache %s", path)
	}
	return data, nil
}

// SavePipelineCache replaces the cache file at path with data. The file is
// written next to its destination and renamed into place.
func SavePipelineCache(path string, data []byte) error {
	if path == "" || len(data) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create pipeline cache dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create pipeline cache file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write pipeline cache %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write pipeline cache %s", path)
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "write pipeline cache %s", path)
}
