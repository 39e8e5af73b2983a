package service

import (
	"strings"

	"dance-storefront/internal/model"
)

// SameClass reports whether a and b denote the same class. documentId wins
// when both sides carry one; otherwise the slugs decide.
func SameClass(a model.ClassRef, b model.ClassRef) bool {
	aDoc, bDoc := strings.TrimSpace(a.DocumentID), strings.TrimSpace(b.DocumentID)
	if aDoc != "" && bDoc != "" {
		return aDoc == bDoc
	}

	aSlug, bSlug := strings.TrimSpace(a.Slug), strings.TrimSpace(b.Slug)
	return aSlug != "" && aSlug == bSlug
}

func HasPurchased(refs []model.ClassRef, target model.ClassRef) bool {
	for _, ref := range refs {
		if SameClass(ref, target) {
			return true
		}
	}
	return false
}

// DedupePurchases drops later refs that share a documentId or a slug with an
// earlier one. Order is preserved.
func DedupePurchases(refs []model.ClassRef) []model.ClassRef {
	out := make([]model.ClassRef, 0, len(refs))
	seenDoc := make(map[string]struct{}, len(refs))
	seenSlug := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		doc := strings.TrimSpace(ref.DocumentID)
		slug := strings.TrimSpace(ref.Slug)

		if _, ok := seenDoc[doc]; ok && doc != "" {
			continue
		}
		if _, ok := seenSlug[slug]; ok && slug != "" {
			continue
		}

		if doc != "" {
			seenDoc[doc] = struct{}{}
		}
		if slug != "" {
			seenSlug[slug] = struct{}{}
		}
		out = append(out, ref)
	}

	return out
}
