package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chunkscribe/internal/services"
)

// SupportedExtensions lists the input file extensions the service accepts.
var SupportedExtensions = []string{".mp3", ".mp4", ".mpeg", ".mpga", ".m4a", ".wav", ".webm"}

// IsSupported reports whether path has a supported audio extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range SupportedExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Discover resolves input into assets. A directory is scanned without
// recursion; a file must carry a supported extension. Assets are returned in
// lexical path order, which is also the order results are reported in.
func Discover(input string) ([]AudioAsset, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, services.Wrap(services.ErrValidation, "discover", "resolve input", "no input path given", nil)
	}
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "discover", "stat input", input, err)
		}
		return nil, services.Wrap(services.ErrValidation, "discover", "stat input", input, err)
	}

	if !info.IsDir() {
		if !IsSupported(input) {
			return nil, services.Wrap(services.ErrValidation, "discover", "check extension",
				fmt.Sprintf("%s is not one of %s", filepath.Base(input), strings.Join(SupportedExtensions, " ")), nil)
		}
		return []AudioAsset{newAsset(input, info.Size())}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "discover", "read directory", input, err)
	}
	var assets []AudioAsset
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		path := filepath.Join(input, entry.Name())
		entryInfo, err := entry.Info()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "discover", "stat file", path, err)
		}
		if !entryInfo.Mode().IsRegular() {
			continue
		}
		assets = append(assets, newAsset(path, entryInfo.Size()))
	}
	if len(assets) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "discover", "scan directory",
			fmt.Sprintf("no supported audio files in %s", input), nil)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}

func newAsset(path string, size int64) AudioAsset {
	return AudioAsset{
		Path:   path,
		Name:   filepath.Base(path),
		Size:   size,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}
}

// outputStems maps each asset to a unique output basename. Assets that share a
// stem (talk.mp3, talk.wav) keep their extension in the name.
func outputStems(assets []AudioAsset) []string {
	counts := make(map[string]int, len(assets))
	for _, asset := range assets {
		counts[stem(asset.Name)]++
	}
	stems := make([]string, len(assets))
	for i, asset := range assets {
		s := stem(asset.Name)
		if counts[s] > 1 {
			s = s + "-" + asset.Format
		}
		stems[i] = s
	}
	return stems
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
