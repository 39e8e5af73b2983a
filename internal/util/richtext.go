package util

import (
	"strings"

	"dance-storefront/internal/model"
)

const (
	blockParagraph = "paragraph"
	blockHeading   = "heading"
)

// ExtractText flattens a rich-text block sequence into plain text. It accepts
// either typed blocks or the raw decoded JSON ([]any of objects). Only paragraph
// and heading blocks contribute; anything else, including malformed input,
// contributes nothing.
func ExtractText(blocks any) string {
	switch v := blocks.(type) {
	case []model.Block:
		return ExtractTextFromBlocks(v)
	case []any:
		return extractRaw(v)
	default:
		return ""
	}
}

func ExtractTextFromBlocks(blocks []model.Block) string {
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if !contributes(block.Type) {
			continue
		}

		var b strings.Builder
		for _, child := range block.Children {
			b.WriteString(child.Text)
		}
		lines = append(lines, b.String())
	}

	return strings.Join(lines, "\n")
}

func extractRaw(blocks []any) string {
	lines := make([]string, 0, len(blocks))
	for _, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		kind, _ := block["type"].(string)
		if !contributes(kind) {
			continue
		}

		var b strings.Builder
		children, _ := block["children"].([]any)
		for _, rawChild := range children {
			child, ok := rawChild.(map[string]any)
			if !ok {
				continue
			}
			text, _ := child["text"].(string)
			b.WriteString(text)
		}
		lines = append(lines, b.String())
	}

	return strings.Join(lines, "\n")
}

func contributes(kind string) bool {
	return kind == blockParagraph || kind == blockHeading
}
