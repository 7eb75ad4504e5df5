package rag

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LoadPath reads a file, or walks a directory, and returns one document per
// readable file. Supported extensions are .txt, .md and .pdf; inside a
// directory, unreadable files are logged and skipped.
func LoadPath(path string, log *logrus.Logger) ([]Document, error) {
	if log == nil {
		log = logrus.New()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", path)
	}

	if !info.IsDir() {
		doc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}

	var docs []Document
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedFile(p) {
			return nil
		}

		doc, err := loadFile(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("skipping unreadable file")
			return nil
		}
		docs = append(docs, doc)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to walk %s", path)
	}

	log.WithFields(logrus.Fields{
		"path":      path,
		"documents": len(docs),
	}).Info("loaded documents")

	return docs, nil
}

// LoadPDF extracts the plain text of a PDF file.
func LoadPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to open pdf %s", path)
	}
	defer file.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrapf(err, "unable to extract text from %s", path)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, text); err != nil {
		return "", errors.Wrapf(err, "unable to read text of %s", path)
	}

	return sb.String(), nil
}

func supportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func loadFile(path string) (Document, error) {
	var content string

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := LoadPDF(path)
		if err != nil {
			return Document{}, err
		}
		content = text
	} else {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Document{}, errors.Wrapf(err, "unable to read %s", path)
		}
		content = string(raw)
	}

	return NewDocument(content, path), nil
}
