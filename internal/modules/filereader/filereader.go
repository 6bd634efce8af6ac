package filereader

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/xurls/v2"
)

// ReadURLs extracts URLs from the text file at path, in document order. The
// file does not need to be one URL per line; anything that parses as a strict
// URL anywhere in the text is collected.
func ReadURLs(path string, logger *zap.Logger) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	urls := xurls.Strict().FindAllString(string(data), -1)
	logger.Info("extracted URLs from file",
		zap.String("path", path),
		zap.Int("count", len(urls)))
	return urls, nil
}

// Collect merges URLs given as arguments with URLs extracted from an optional
// file. Argument order is preserved, file URLs follow. Blank arguments are
// dropped.
func Collect(args []string, filePath string, logger *zap.Logger) ([]string, error) {
	var urls []string
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a != "" {
			urls = append(urls, a)
		}
	}

	if filePath != "" {
		fromFile, err := ReadURLs(filePath, logger)
		if err != nil {
			return nil, err
		}
		urls = append(urls, fromFile...)
	}

	return urls, nil
}
