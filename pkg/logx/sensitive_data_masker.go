package logx

import (
	"regexp"
)

type SensitiveDataMaskerInterface interface {
	Mask(input []byte) []byte
}

//nolint:gochecknoglobals
var sensitiveDataPatterns = []*regexp.Regexp{
	// HTTP headers.
	regexp.MustCompile("(?s)(Authorization: Bearer ).+?(\r)"),
	// Telegram bot API carries the token in the request path.
	regexp.MustCompile(`(/bot)\d+:[A-Za-z0-9_-]+(/)`),
	// YouTube data API key arrives as a query parameter.
	regexp.MustCompile(`([?&]key=)[A-Za-z0-9_-]+(&|\s|$)`),
	// JSON fields.
	regexp.MustCompile(`(?s)("[Tt]oken":\s?").+?(")`),
	regexp.MustCompile(`(?s)("[Pp]assword":\s?").+?(")`),
}

type SensitiveDataMasker struct{}

func NewSensitiveDataMasker() SensitiveDataMasker {
	return SensitiveDataMasker{}
}

func (s SensitiveDataMasker) Mask(input []byte) []byte {
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAll(input, []byte("${1}[MASKED]${2}"))
	}

	return input
}
