package apply

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/subosito/gotenv"
)

const envFile = ".env"

// setEnv appends key to the .env file in dir unless the file already defines
// it. It reports whether the file changed.
func (o *Orchestrator) setEnv(dir string, step EnvStep) (bool, error) {
	path := filepath.Join(dir, envFile)
	data, err := afero.ReadFile(o.fs, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	existing, err := gotenv.StrictParse(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, ok := existing[step.Key]; ok {
		return false, nil
	}

	value := step.Value
	if step.Secret {
		if value, err = o.secret(); err != nil {
			return false, fmt.Errorf("generating %s: %w", step.Key, err)
		}
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, step.Key+"="+value+"\n"...)
	if err := afero.WriteFile(o.fs, path, data, 0600); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
