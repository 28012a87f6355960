// Package capture saves failure-evidence screenshots. Capture runs while
// the failing session is still open, before release tears the app down.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/aviary-e2e/pkg/core"
	"github.com/devicelab-dev/aviary-e2e/pkg/logger"
	"github.com/devicelab-dev/aviary-e2e/pkg/session"
)

// stampLayout keeps artifact names sortable by failure time.
const stampLayout = "20060102-150405"

// Capture writes failure screenshots into one directory per run.
type Capture struct {
	Dir string
}

// New returns a Capture writing into dir. The directory is created on
// first use, not here, so a fully green run leaves no artifacts behind.
func New(dir string) *Capture {
	return &Capture{Dir: dir}
}

// OnFailure grabs a full-screen screenshot as evidence for a failing case
// and returns the artifact path. The screenshot reflects the app state at
// the moment of failure; callers invoke this before releasing the session.
//
// Failures here are secondary: the caller records them alongside the
// case's own error, never in place of it.
func (c *Capture) OnFailure(sess *session.Session, caseID string) (string, error) {
	if !sess.Active() {
		return "", core.ErrCapture.WithMessage("no active session to capture")
	}

	png, err := sess.Client().Screenshot()
	if err != nil {
		return "", core.ErrCapture.
			WithMessage(fmt.Sprintf("screenshot for %s failed", caseID)).
			WithCause(err)
	}

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", core.ErrCapture.
			WithMessage(fmt.Sprintf("cannot create artifact dir %q", c.Dir)).
			WithCause(err)
	}

	path, err := c.writeUnique(caseID, png)
	if err != nil {
		return "", err
	}
	logger.Info("captured %s", path)
	return path, nil
}

// writeUnique creates <id>_<stamp>.png, suffixing -2, -3, ... when another
// failure in the same run landed on the same second. O_EXCL makes the
// existence check and the create one step.
func (c *Capture) writeUnique(caseID string, png []byte) (string, error) {
	base := fmt.Sprintf("%s_%s", caseID, time.Now().Format(stampLayout))

	name := base + ".png"
	for n := 2; ; n++ {
		path := filepath.Join(c.Dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			if _, werr := f.Write(png); werr != nil {
				f.Close()
				os.Remove(path)
				return "", core.ErrCapture.
					WithMessage(fmt.Sprintf("writing %q failed", path)).
					WithCause(werr)
			}
			if cerr := f.Close(); cerr != nil {
				return "", core.ErrCapture.
					WithMessage(fmt.Sprintf("closing %q failed", path)).
					WithCause(cerr)
			}
			return path, nil
		}
		if !os.IsExist(err) {
			return "", core.ErrCapture.
				WithMessage(fmt.Sprintf("creating %q failed", path)).
				WithCause(err)
		}
		name = fmt.Sprintf("%s-%d.png", base, n)
	}
}
