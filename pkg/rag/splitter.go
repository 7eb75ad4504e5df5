package rag

import "strings"

const (
	defaultMaxSentences = 3
	defaultWindowSize   = 800
)

// SentenceSplitter groups consecutive sentences into chunks of at most
// MaxSentences. A non-positive MaxSentences falls back to the default.
type SentenceSplitter struct {
	MaxSentences int
}

func (s SentenceSplitter) Split(doc Document) []Document {
	maxSentences := s.MaxSentences
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}

	sentences := splitSentences(doc.Content)

	var children []Document
	for start := 0; start < len(sentences); start += maxSentences {
		end := min(start+maxSentences, len(sentences))
		children = append(children, childDocument(doc, strings.Join(sentences[start:end], " "), len(children)))
	}

	return children
}

// WindowSplitter cuts content into rune windows of Size with Overlap runes
// shared between neighbours. Invalid values fall back to the defaults.
type WindowSplitter struct {
	Size    int
	Overlap int
}

func (s WindowSplitter) Split(doc Document) []Document {
	size := s.Size
	if size <= 0 {
		size = defaultWindowSize
	}
	overlap := s.Overlap
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}

	runes := []rune(doc.Content)

	var children []Document
	for start := 0; start < len(runes); start += size - overlap {
		end := min(start+size, len(runes))
		children = append(children, childDocument(doc, string(runes[start:end]), len(children)))
		if end == len(runes) {
			break
		}
	}

	return children
}

func childDocument(parent Document, content string, index int) Document {
	child := NewDocument(content, parent.Source)
	child.ParentID = parent.ID
	child.Index = index
	child.Metadata = parent.Metadata

	return child
}

var (
	_ Splitter = SentenceSplitter{}
	_ Splitter = WindowSplitter{}
)
