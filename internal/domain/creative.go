package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CreativeFormat enumerates the supported creative layouts.
type CreativeFormat string

const (
	FormatInstagramPost CreativeFormat = "instagram_post"
	FormatWhatsAppStory CreativeFormat = "whatsapp_story"
	FormatLinkedInPost  CreativeFormat = "linkedin_post"
	FormatBanner        CreativeFormat = "banner"
	FormatBrochure      CreativeFormat = "brochure"
)

// Formats lists every supported creative format.
func Formats() []CreativeFormat {
	return []CreativeFormat{
		FormatInstagramPost,
		FormatWhatsAppStory,
		FormatLinkedInPost,
		FormatBanner,
		FormatBrochure,
	}
}

// ParseCreativeFormat sanitizes free-form input into a supported format.
// Unrecognized values fall back to instagram_post.
func ParseCreativeFormat(raw string) CreativeFormat {
	switch CreativeFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatWhatsAppStory:
		return FormatWhatsAppStory
	case FormatLinkedInPost:
		return FormatLinkedInPost
	case FormatBanner:
		return FormatBanner
	case FormatBrochure:
		return FormatBrochure
	default:
		return FormatInstagramPost
	}
}

// Label returns the format with underscores replaced by spaces, the wording
// used inside generation prompts.
func (f CreativeFormat) Label() string {
	return strings.ReplaceAll(string(f), "_", " ")
}

// DisplayName returns a title-cased label for UI listings.
func (f CreativeFormat) DisplayName() string {
	return cases.Title(language.Und).String(f.Label())
}

// AspectRatioFor maps a creative format to its target image aspect ratio.
// Total: any unrecognized format yields 1:1.
func AspectRatioFor(format CreativeFormat) string {
	switch format {
	case FormatInstagramPost:
		return "1:1"
	case FormatWhatsAppStory:
		return "9:16"
	case FormatLinkedInPost:
		// Closest supported ratio to LinkedIn's recommended 1.91:1.
		return "4:3"
	case FormatBanner:
		return "16:9"
	case FormatBrochure:
		// Portrait orientation suitable for a brochure cover.
		return "3:4"
	default:
		return "1:1"
	}
}

// CreativeCopy is the structured result of the copy-generation call. CTA may
// be empty for pure greetings; FestivalTheme is empty when no occasion was
// given. All fields are required at the wire schema level.
type CreativeCopy struct {
	Headline          string `json:"headline"`
	Subtext           string `json:"subtext"`
	CTA               string `json:"CTA"`
	LayoutDescription string `json:"layout_description"`
	FestivalTheme     string `json:"festival_theme"`
}

// CreativeOutput bundles generated copy with the visual asset, encoded as a
// data URL with embedded MIME type. Immutable once assembled.
type CreativeOutput struct {
	Copy      CreativeCopy `json:"json"`
	VisualURL string       `json:"visualUrl"`
}

// HistoryEntry is the persisted record of one successful generation. Entries
// are append-only; they are never mutated or deleted.
type HistoryEntry struct {
	ID          string         `json:"id"`
	UserEmail   string         `json:"-"`
	Format      CreativeFormat `json:"creativeType"`
	ProductText string         `json:"userInput"`
	Occasion    string         `json:"occasion"`
	Copy        CreativeCopy   `json:"json"`
	VisualURL   string         `json:"visualUrl"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// HistoryStats summarizes a user's library for the dashboard.
type HistoryStats struct {
	CreatedToday    int `json:"created_today"`
	CreatedThisWeek int `json:"created_this_week"`
	Total           int `json:"total"`
}
