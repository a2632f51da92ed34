package ffmpeg

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/soundgrab/soundgrab/internal/errs"
)

// Executable names
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

// InstallHint is surfaced when the engine is missing everywhere we look
const InstallHint = "install it with 'apt-get install ffmpeg' or 'brew install ffmpeg', " +
	"or place the binaries in the bundled engine directory"

// Engine is a resolved ffmpeg installation. The zero value is not usable;
// construct one through Resolve.
type Engine struct {
	ffmpegPath  string
	ffprobePath string
}

// Resolve locates the transcoding engine. The bundled directory is preferred
// over the system PATH so a local copy can pin the engine version. A missing
// engine is an EngineMissingError carrying a manual install hint.
func Resolve(bundledDir string) (*Engine, error) {
	if bundledDir != "" {
		ffmpegPath := filepath.Join(bundledDir, executableName(FFmpegCommand))
		ffprobePath := filepath.Join(bundledDir, executableName(FFprobeCommand))
		if fileExists(ffmpegPath) && fileExists(ffprobePath) {
			return &Engine{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
		}
	}

	ffmpegPath, err := exec.LookPath(FFmpegCommand)
	if err != nil {
		return nil, &errs.EngineMissingError{Engine: FFmpegCommand, Hint: InstallHint}
	}
	ffprobePath, err := exec.LookPath(FFprobeCommand)
	if err != nil {
		return nil, &errs.EngineMissingError{Engine: FFprobeCommand, Hint: InstallHint}
	}

	return &Engine{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
}

// Dir returns the directory holding the resolved binaries, suitable for
// handing to the download engine as its ffmpeg location.
func (e *Engine) Dir() string {
	return filepath.Dir(e.ffmpegPath)
}

// FFmpegPath returns the absolute path of the resolved ffmpeg binary
func (e *Engine) FFmpegPath() string {
	return e.ffmpegPath
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
