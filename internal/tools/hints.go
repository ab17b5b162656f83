package tools

import "runtime"

// InstallHints returns platform specific installation instructions.
func InstallHints(tool string) []string {
	return installHints(tool, runtime.GOOS)
}

func installHints(tool, goos string) []string {
	switch tool {
	case "ffmpeg", "ffprobe":
	case "npx", "remotion":
		return []string{"Install Node.js (https://nodejs.org) and run npm install in the project"}
	default:
		return nil
	}

	switch goos {
	case "darwin":
		return []string{"macOS: brew install ffmpeg"}
	case "linux":
		return []string{"Linux: sudo apt install ffmpeg"}
	case "windows":
		return []string{
			"Windows: https://ffmpeg.org/download.html#build-windows",
			"or via winget: winget install Gyan.FFmpeg",
		}
	default:
		return []string{
			"Windows: https://ffmpeg.org/download.html#build-windows",
			"macOS: brew install ffmpeg",
			"Linux: sudo apt install ffmpeg",
		}
	}
}
