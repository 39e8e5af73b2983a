package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"dance-storefront/internal/model"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	t.Run("joins paragraph and heading blocks by newline", func(t *testing.T) {
		blocks := []model.Block{
			{Type: "heading", Level: 2, Children: []model.InlineBlock{{Text: "Salsa "}, {Text: "caleña"}}},
			{Type: "paragraph", Children: []model.InlineBlock{{Text: "Paso básico."}}},
		}

		require.Equal(t, "Salsa caleña\nPaso básico.", ExtractText(blocks))
	})

	t.Run("ignores other block kinds entirely", func(t *testing.T) {
		blocks := []model.Block{
			{Type: "list", Children: []model.InlineBlock{{Text: "uno"}}},
			{Type: "quote", Children: []model.InlineBlock{{Text: "dos"}}},
			{Type: "image"},
		}

		require.Equal(t, "", ExtractText(blocks))
	})

	t.Run("skips unsupported kinds between text blocks", func(t *testing.T) {
		blocks := []model.Block{
			{Type: "paragraph", Children: []model.InlineBlock{{Text: "a"}}},
			{Type: "code", Children: []model.InlineBlock{{Text: "x := 1"}}},
			{Type: "paragraph", Children: []model.InlineBlock{{Text: "b"}}},
		}

		require.Equal(t, "a\nb", ExtractText(blocks))
	})

	t.Run("handles raw decoded json", func(t *testing.T) {
		var raw any
		require.NoError(t, json.Unmarshal([]byte(`[
			{"type":"paragraph","children":[{"type":"text","text":"Hola"},{"type":"text","text":" mundo"}]},
			{"type":"list","children":[{"text":"ignored"}]},
			{"type":"heading","children":[{"text":"Fin"}]}
		]`), &raw))

		require.Equal(t, "Hola mundo\nFin", ExtractText(raw))
	})

	t.Run("never fails on malformed input", func(t *testing.T) {
		inputs := []any{
			nil,
			"not blocks",
			42,
			map[string]any{"type": "paragraph"},
			[]any{nil, "x", 3},
			[]any{map[string]any{"type": "paragraph", "children": "nope"}},
			[]any{map[string]any{"type": "paragraph", "children": []any{nil, map[string]any{"text": 5}}}},
		}

		for _, input := range inputs {
			require.NotPanics(t, func() { ExtractText(input) })
		}
		require.Equal(t, "", ExtractText(nil))
		require.Equal(t, "", ExtractText("not blocks"))
		require.Equal(t, "", ExtractText([]any{map[string]any{"type": "paragraph", "children": "nope"}}))
	})
}
