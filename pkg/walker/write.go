// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package walker

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"gitlab.com/tozd/go/errors"
)

// fileChmod is implemented by OS backed files
type fileChmod interface {
	Chmod(mode os.FileMode) error
}

func chmod(fs billy.Basic, f billy.File, name string, perm os.FileMode) error {
	if c, ok := f.(fileChmod); ok {
		return c.Chmod(perm)
	}
	if c, ok := fs.(billy.Change); ok {
		return c.Chmod(name, perm)
	}
	return nil
}

// 💾 WriteFileAtomic replaces name with data.
//
// The data goes to a temporary sibling first and is renamed over name, so a
// reader sees either the old or the new content. perm is applied as given,
// regardless of the umask, where the filesystem supports modes. The temporary
// file is removed when anything fails.
func WriteFileAtomic(fs billy.Basic, name string, data []byte, perm os.FileMode) (err error) {
	tmp := filepath.Join(filepath.Dir(name), "."+filepath.Base(name)+".cleanmarkers-"+strconv.FormatUint(rand.Uint64(), 36))

	f, err := fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = fs.Remove(tmp)
		}
	}()

	// the umask applied at creation; set the exact mode again
	if err := chmod(fs, f, tmp, perm); err != nil {
		_ = f.Close()
		return errors.Errorf("setting mode on temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := fs.Rename(tmp, name); err != nil {
		return errors.Errorf("replacing %s: %w", name, err)
	}

	return nil
}
