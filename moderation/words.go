package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	apperrors "moodmatch/errors"
)

//go:embed censored/*
var censoredFolder embed.FS

// Dictionary is the loaded word list plus metadata for startup logging.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadDictionary parses the embedded per-language word files. One file per
// language ("en.txt" -> "en"), one word or phrase per line.
func LoadDictionary() (*Dictionary, error) {
	entries, err := fs.ReadDir(censoredFolder, "censored")
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := censoredFolder.ReadFile("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, apperrors.ErrEmptyDictionary
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return &Dictionary{Words: words, Languages: languages}, nil
}
