package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool is an external program quickshorts runs.
type Tool struct {
	Name     string
	Command  string
	Purpose  string
	Optional bool
}

// Status is the outcome of locating a Tool. Path is the resolved executable
// when Available is set; Detail explains a failure otherwise.
type Status struct {
	Tool
	Path      string
	Available bool
	Detail    string
}

// Locate resolves each tool's command on PATH, keeping the input order.
func Locate(tools ...Tool) []Status {
	out := make([]Status, len(tools))
	for i, tool := range tools {
		tool.Command = strings.TrimSpace(tool.Command)
		out[i] = locate(tool)
	}
	return out
}

func locate(tool Tool) Status {
	st := Status{Tool: tool}
	if tool.Command == "" {
		st.Detail = "command not configured"
		return st
	}
	path, err := exec.LookPath(tool.Command)
	if err != nil {
		st.Detail = fmt.Sprintf("binary %q not found", tool.Command)
		return st
	}
	st.Path = path
	st.Available = true
	return st
}

// LocateFFprobe finds the ffprobe that belongs with ffmpegCommand. A
// configured command other than plain "ffprobe" is used as given. Otherwise
// an ffprobe next to the ffmpeg binary wins so stream inspection and remux
// come from the same build, and PATH is the last resort.
func LocateFFprobe(ffmpegCommand, ffprobeCommand string) Status {
	tool := Tool{Name: "FFprobe", Command: "ffprobe", Purpose: "Inspects source containers"}
	if c := strings.TrimSpace(ffprobeCommand); c != "" && c != "ffprobe" {
		tool.Command = c
		return locate(tool)
	}
	if ffmpeg, err := exec.LookPath(strings.TrimSpace(ffmpegCommand)); err == nil {
		sibling := filepath.Join(filepath.Dir(ffmpeg), executable("ffprobe"))
		if isExecutable(sibling) {
			tool.Command = sibling
			return Status{Tool: tool, Path: sibling, Available: true}
		}
	}
	return locate(tool)
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode().Perm()&0o111 != 0
}
