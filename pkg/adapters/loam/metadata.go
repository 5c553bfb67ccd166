package loam

// DeckMetadata is the document shape of a deck file: front matter of a
// Markdown file or the body of a JSON/YAML file. Slides stay generic so that
// actions go through the same decoding as stored presentations.
type DeckMetadata struct {
	// Code is the join code the deck is published under. Defaults to the file name.
	Code            string `json:"code,omitempty" mapstructure:"code"`
	Title           string `json:"title" mapstructure:"title"`
	AnalyticsKey    string `json:"analyticsKey,omitempty" mapstructure:"analyticsKey"`
	SegmentWriteKey string `json:"segmentWriteKey,omitempty" mapstructure:"segmentWriteKey"`
	Slides          []any  `json:"slides" mapstructure:"slides"`
}
