package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultNamePrefix = "loan_app"

// NameGenerator builds storage names of the form
// {prefix}_{yyyyMMdd_HHmmss}_{8 hex}.{ext}.
type NameGenerator struct {
	Prefix string
	Now    func() time.Time
}

func NewNameGenerator(prefix string) *NameGenerator {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return &NameGenerator{Prefix: prefix, Now: time.Now}
}

// Generate derives the extension from original (already sanitized) and
// lower-cases it. A name without a dot is used whole as the extension.
func (g *NameGenerator) Generate(original string) string {
	ext := strings.ToLower(original[strings.LastIndex(original, ".")+1:])
	stamp := g.Now().Format("20060102_150405")
	suffix := uuid.New().String()[:8]

	if ext == "" {
		return fmt.Sprintf("%s_%s_%s", g.Prefix, stamp, suffix)
	}
	return fmt.Sprintf("%s_%s_%s.%s", g.Prefix, stamp, suffix, ext)
}
