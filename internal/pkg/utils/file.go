package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportAudioExt checks if audio ext is supported
func SupportAudioExt(ext string) bool {
	switch ext {
	case ".webm", ".wav", ".mp3", ".mp4", ".m4a", ".ogg":
		return true
	}
	return false
}

// SupportAudioContentType checks the declared upload media type
func SupportAudioContentType(ct string) bool {
	return strings.HasPrefix(ct, "audio/") || ct == "video/webm"
}

// NeedsConversion indicates the file must be transcoded before a cloud ASR call
func NeedsConversion(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext != ".wav"
}

// MakeValidateFileName returns '<id>/<name>' object key, failing on path tricks
func MakeValidateFileName(id, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no file name")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("wrong file name '%s'", name)
	}
	if id == "" {
		return name, nil
	}
	return id + "/" + name, nil
}
