package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gofrs/flock"

	"subforge/internal/render"
	"subforge/internal/services"
)

// SubtitleName returns <stem>_<src>_to_<tgt>[_llm][_double].<ext>; double
// validation implies _llm.
func SubtitleName(stem, src, tgt string, validated, double bool, format render.Format) string {
	var b strings.Builder
	b.WriteString(mediaStem(stem))
	fmt.Fprintf(&b, "_%s_to_%s", token(src), token(tgt))
	if validated || double {
		b.WriteString("_llm")
	}
	if double {
		b.WriteString("_double")
	}
	b.WriteString("." + format.Ext())
	return b.String()
}

// BurnedName returns the file name of a video with burnt-in captions.
func BurnedName(mediaPath, tgt string) string {
	return fmt.Sprintf("%s_%s_subtitled%s", mediaStem(mediaPath), token(tgt), videoExt(mediaPath))
}

// DubbedName returns the file name of a dubbed video, or of the dub track
// when ext is ".wav".
func DubbedName(mediaPath, tgt, ext string) string {
	return fmt.Sprintf("%s_%s_dub%s", mediaStem(mediaPath), token(tgt), ext)
}

func mediaStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if clean := strings.TrimSpace(unsafeName.Replace(stem)); clean != "" {
		return clean
	}
	return "output"
}

// unsafeName maps path separators and shell-hostile characters out of
// file name stems.
var unsafeName = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-",
	"?", "", "\"", "", "<", "", ">", "", "|", "",
)

// token lower-cases value and maps anything outside [a-z0-9_-] to '_'.
func token(value string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if mapped = strings.Trim(mapped, "_-"); mapped == "" {
		return "unknown"
	}
	return mapped
}

func videoExt(path string) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		return ext
	}
	return ".mkv"
}

// outputDir resolves where results for input land: the request override,
// then paths.output_dir, then the input's directory.
func (p *Context) outputDir(override, input string) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		dir = p.cfg.Paths.OutputDir
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "output", "ensure directory", dir, err)
	}
	return dir, nil
}

// runLock serialises runs over the same input across processes.
type runLock struct {
	lock *flock.Flock
}

func (p *Context) acquireRunLock(input string) (*runLock, error) {
	dir := filepath.Join(p.cfg.Paths.WorkDir, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, token(mediaStem(input))+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "run", "lock", "another subforge run is processing "+filepath.Base(input), nil)
	}
	return &runLock{lock: lock}, nil
}

func (l *runLock) release() {
	if l == nil || l.lock == nil {
		return
	}
	_ = l.lock.Unlock()
}
