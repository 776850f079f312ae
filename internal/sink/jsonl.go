// Package sink holds the append-only JSON lines output of range scans.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidleitw/piazza/internal/record"
	"github.com/sirupsen/logrus"
)

// JSONLFile appends one JSON document per line. Existing content is never
// truncated.
type JSONLFile struct {
	path string
	file *os.File
}

func ensureDirectoryExists(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logrus.Infof("Directory %s not exist, create it", dir)
		if err = os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).Error("os.MkdirAll failed")
			return err
		}
	}
	return nil
}

func OpenJSONL(path string) (*JSONLFile, error) {
	if err := ensureDirectoryExists(path); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("os.OpenFile failed")
		return nil, err
	}
	return &JSONLFile{path: path, file: file}, nil
}

// Append writes line followed by a newline.
func (f *JSONLFile) Append(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("line for %s contains a line break", f.path)
	}
	if _, err := f.file.WriteString(line + "\n"); err != nil {
		logrus.WithError(err).WithField("path", f.path).Error("file.WriteString failed")
		return err
	}
	return nil
}

func (f *JSONLFile) WriteQuestion(_ string, q *record.Question) error {
	line, err := json.Marshal(q)
	if err != nil {
		logrus.WithError(err).Error("json.Marshal failed")
		return err
	}
	return f.Append(string(line))
}

func (f *JSONLFile) Close() error {
	return f.file.Close()
}
