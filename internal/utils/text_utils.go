package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText truncates text to at most maxSize characters (runes)
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// Byte length bounds rune count, so short text skips the scan
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	count := 0
	for i := range text {
		if count == maxSize {
			truncated := text[:i]
			tp.logger.Debug("Text truncated",
				zap.Int("original_size", len(text)),
				zap.Int("truncated_size", len(truncated)),
				zap.Int("max_chars", maxSize))
			return truncated
		}
		count++
	}
	return text
}

// SanitizeUTF8 drops invalid UTF-8 bytes
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText sanitizes and truncates text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), maxSize)
}

// CollapseWhitespace joins the whitespace-separated fields of text with single spaces
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

var titleCaser = cases.Title(language.English)

// TitleCase upper-cases the first letter of each word and lower-cases the rest
func TitleCase(text string) string {
	return titleCaser.String(text)
}

// IsAllLower reports whether text has at least one cased letter and no upper-case ones
func IsAllLower(text string) bool {
	hasLower := false
	for _, r := range text {
		if strings.ToUpper(string(r)) != string(r) {
			hasLower = true
		}
		if strings.ToLower(string(r)) != string(r) {
			return false
		}
	}
	return hasLower
}
