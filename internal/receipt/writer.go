package receipt

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ArtifactName is the fixed receipt filename. Every commit overwrites
// the previous receipt; the name is deliberately not timestamped or
// keyed by employee.
const ArtifactName = "delivery_receipt.html"

// Writer saves receipt artifacts into a directory and opens them with
// the platform's default handler.
type Writer struct {
	Dir string // defaults to the working directory
}

// Save writes the artifact to its fixed name, replacing any previous
// receipt, and returns the path written.
func (w *Writer) Save(artifact []byte) (string, error) {
	path := filepath.Join(w.dir(), ArtifactName)
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return path, nil
}

// Open asks the platform's default handler to display the artifact.
// Callers treat a failure as non-fatal and fall back to reporting the
// saved path.
func (w *Writer) Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open receipt: %w", err)
	}
	return nil
}

func (w *Writer) dir() string {
	if w.Dir != "" {
		return w.Dir
	}
	return "."
}
