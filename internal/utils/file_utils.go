package utils

import (
	"path"
	"strings"
)

var languageByExtension = map[string]string{
	"go":     "go",
	"js":     "javascript",
	"ts":     "typescript",
	"jsx":    "jsx",
	"tsx":    "tsx",
	"py":     "python",
	"java":   "java",
	"kt":     "kotlin",
	"scala":  "scala",
	"groovy": "groovy",
	"gradle": "groovy",
	"c":      "c",
	"h":      "c",
	"cpp":    "cpp",
	"cc":     "cpp",
	"cxx":    "cpp",
	"hpp":    "cpp",
	"cs":     "csharp",
	"php":    "php",
	"rb":     "ruby",
	"rs":     "rust",
	"swift":  "swift",
	"sh":     "bash",
	"bash":   "bash",
	"zsh":    "bash",
	"ps1":    "powershell",
	"sql":    "sql",
	"html":   "html",
	"css":    "css",
	"xml":    "xml",
	"json":   "json",
	"yaml":   "yaml",
	"yml":    "yaml",
	"toml":   "toml",
	"ini":    "ini",
	"conf":   "ini",
	"glsl":   "glsl",
	"vert":   "glsl",
	"frag":   "glsl",
	"md":     "markdown",
	"mk":     "makefile",
}

// DetectLanguageFromFilePath returns the markdown fence language for a file,
// or "" for plain text.
func DetectLanguageFromFilePath(filePath string) string {
	base := strings.ToLower(path.Base(strings.ReplaceAll(filePath, "\\", "/")))

	switch base {
	case "dockerfile":
		return "dockerfile"
	case "makefile":
		return "makefile"
	}

	ext := strings.TrimPrefix(path.Ext(base), ".")
	return languageByExtension[ext]
}
