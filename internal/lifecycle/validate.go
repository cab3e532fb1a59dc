package lifecycle

import (
	"sort"
	"strings"

	"github.com/kittclouds/keepmem/internal/apperr"
)

const (
	maxTitleLen      = 120
	maxSummaryLen    = 500
	maxBodyLen       = 4000
	maxSourceRefLen  = 2048
	maxOriginExcerpt = 280
)

// normalizedAdd validates an AddCardRequest and returns a trimmed copy, matching
// the source's _validate_payload(require_title=True, require_note_type=True).
func normalizedAdd(req AddCardRequest) (AddCardRequest, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return AddCardRequest{}, apperr.Validation("title is required")
	}
	summary := strings.TrimSpace(req.Summary)
	if summary == "" {
		return AddCardRequest{}, apperr.Validation("summary is required")
	}
	req.Title = truncate(title, maxTitleLen)
	req.Summary = truncate(summary, maxSummaryLen)

	if req.Body != nil {
		req.Body = normalizeBody(*req.Body)
	}

	noteType, err := normalizeNoteType(&req.NoteType, true)
	if err != nil {
		return AddCardRequest{}, err
	}
	req.NoteType = *noteType

	if req.SourceReference != nil {
		ref := normalizeSourceReference(*req.SourceReference)
		req.SourceReference = ref
	}
	if req.OriginConversationID != nil {
		oci := strings.TrimSpace(*req.OriginConversationID)
		req.OriginConversationID = &oci
	}
	if req.OriginMessageExcerpt != nil {
		excerpt := truncate(*req.OriginMessageExcerpt, maxOriginExcerpt)
		req.OriginMessageExcerpt = &excerpt
	}
	return req, nil
}

// normalizedUpdate validates and trims the fields present in an
// UpdateFields, matching _validate_payload(require_title=False,
// require_note_type=False). Fields the caller did not set (nil) pass
// through unchanged.
func normalizedUpdate(fields UpdateFields) (UpdateFields, error) {
	out := fields

	if fields.Title != nil {
		clean := strings.TrimSpace(*fields.Title)
		if clean == "" {
			return UpdateFields{}, apperr.Validation("title cannot be empty")
		}
		clean = truncate(clean, maxTitleLen)
		out.Title = &clean
	}
	if fields.Summary != nil {
		clean := strings.TrimSpace(*fields.Summary)
		if clean == "" {
			return UpdateFields{}, apperr.Validation("summary cannot be empty")
		}
		clean = truncate(clean, maxSummaryLen)
		out.Summary = &clean
	}
	if fields.Body != nil {
		out.Body = normalizeBody(*fields.Body)
	}
	if fields.NoteType != nil {
		noteType, err := normalizeNoteType(fields.NoteType, false)
		if err != nil {
			return UpdateFields{}, err
		}
		out.NoteType = noteType
	}
	if fields.SourceReference != nil {
		out.SourceReference = normalizeSourceReference(*fields.SourceReference)
	}
	if fields.OriginConversationID != nil {
		clean := strings.TrimSpace(*fields.OriginConversationID)
		out.OriginConversationID = &clean
	}
	if fields.OriginMessageExcerpt != nil {
		clean := truncate(*fields.OriginMessageExcerpt, maxOriginExcerpt)
		out.OriginMessageExcerpt = &clean
	}
	return out, nil
}

func normalizeNoteType(raw *string, required bool) (*string, error) {
	if raw == nil {
		if required {
			return nil, apperr.Validation("noteType is required")
		}
		return nil, nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*raw))
	if _, ok := AllowedNoteTypes[normalized]; !ok {
		names := make([]string, 0, len(AllowedNoteTypes))
		for n := range AllowedNoteTypes {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, apperr.Validation("noteType must be one of: %s", strings.Join(names, ", "))
	}
	return &normalized, nil
}

func normalizeBody(raw string) *string {
	clean := truncate(strings.TrimSpace(raw), maxBodyLen)
	if clean == "" {
		return nil
	}
	return &clean
}

func normalizeSourceReference(raw string) *string {
	clean := truncate(strings.TrimSpace(raw), maxSourceRefLen)
	if clean == "" {
		return nil
	}
	return &clean
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
