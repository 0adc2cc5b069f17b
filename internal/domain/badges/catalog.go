// Package badges defines the static achievement catalog.
//
// The catalog is fixed, in-process data rather than a plugin registry:
// an immutable ordered list of definitions with one tagged criterion
// variant per criteria type, so eligibility code can be exhaustively
// matched over the variants.
package badges

// Badge slugs. Checkers and the award ledger refer to badges by slug.
const (
	SlugFirstContribution = "first-contribution"
	SlugTenUpvotes        = "ten-upvotes"
	SlugHundredCopies     = "hundred-copies"
	SlugVerifiedAuthor    = "verified-author"
	SlugTop10Week         = "top-10-week"
	SlugStreak7           = "streak-7"
)

// Metrics a ThresholdCriterion can gate on.
const (
	MetricNetUpvotes = "net_upvotes"
	MetricCopies     = "copies"
	MetricStreakDays = "streak_days"
)

// Criterion is a tagged variant describing when a badge is earned.
// Implementations are EventCriterion and ThresholdCriterion.
type Criterion interface {
	// Type returns the variant tag persisted with the badge.
	Type() string
}

// EventCriterion awards on a named one-shot event, e.g. the first
// publish or verification being granted.
type EventCriterion struct {
	Name string
}

// Type implements Criterion.
func (EventCriterion) Type() string { return "event" }

// ThresholdCriterion awards when a metric first reaches a value.
type ThresholdCriterion struct {
	Metric string
	Value  int64
}

// Type implements Criterion.
func (ThresholdCriterion) Type() string { return "threshold" }

// Definition is one catalog entry.
type Definition struct {
	Slug        string
	Name        string
	Description string
	Criteria    Criterion
}

// catalog is the fixed, ordered achievement table. Seeding walks it in
// order and creates any badge whose slug is not yet stored.
var catalog = []Definition{
	{
		Slug:        SlugFirstContribution,
		Name:        "First Contribution",
		Description: "Published your first rule.",
		Criteria:    EventCriterion{Name: "first_publish"},
	},
	{
		Slug:        SlugTenUpvotes,
		Name:        "Crowd Pleaser",
		Description: "A rule of yours reached a net score of 10 upvotes.",
		Criteria:    ThresholdCriterion{Metric: MetricNetUpvotes, Value: 10},
	},
	{
		Slug:        SlugHundredCopies,
		Name:        "Copied a Hundred Times",
		Description: "A rule of yours was copied 100 times.",
		Criteria:    ThresholdCriterion{Metric: MetricCopies, Value: 100},
	},
	{
		Slug:        SlugVerifiedAuthor,
		Name:        "Verified Author",
		Description: "Identity verified by the moderation team.",
		Criteria:    EventCriterion{Name: "verification_granted"},
	},
	{
		Slug:        SlugTop10Week,
		Name:        "Top 10 of the Week",
		Description: "A rule of yours placed in the weekly top 10.",
		Criteria:    EventCriterion{Name: "weekly_top10"},
	},
	{
		Slug:        SlugStreak7,
		Name:        "Seven-Day Streak",
		Description: "Active on seven consecutive days.",
		Criteria:    ThresholdCriterion{Metric: MetricStreakDays, Value: 7},
	},
}

// Catalog returns the ordered achievement definitions. The returned
// slice is a copy; the catalog itself is immutable.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition for a slug.
func Lookup(slug string) (Definition, bool) {
	for _, d := range catalog {
		if d.Slug == slug {
			return d, true
		}
	}
	return Definition{}, false
}
