package engine

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/formlab/formlab/model"
)

// Summary is the per-question analytics result. The same shape feeds the
// reporting endpoint and the spreadsheet export, so fields are stable and
// only omitted when the question type has no use for them.
type Summary struct {
	QuestionID   int                `json:"id"`
	Text         string             `json:"text"`
	Type         model.QuestionType `json:"type"`
	TotalAnswers int                `json:"total_answers"`
	Distribution []Bucket           `json:"distribution,omitempty"`
	Histogram    []NumericBucket    `json:"histogram,omitempty"`
	Min          *float64           `json:"min,omitempty"`
	Mean         *float64           `json:"mean,omitempty"`
	Max          *float64           `json:"max,omitempty"`
	Frequencies  []ValueBucket      `json:"frequencies,omitempty"`
	Count        *int               `json:"count,omitempty"`
}

// Bucket is one option (or the _other pseudo-option) of a choice
// distribution.
type Bucket struct {
	OptionID   int     `json:"option_id,omitempty"`
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type NumericBucket struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

type ValueBucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// OtherBucket is the pseudo-option collecting non-empty answers that match no
// current option (options may have been edited after submission).
const OtherBucket = "_other"

// Aggregate recomputes the per-question summaries for a form from all stored
// answers. It is a pure read, recomputed freshly on every call.
func (e *Engine) Aggregate(ctx context.Context, formID int) ([]Summary, error) {
	if _, err := e.store.FormByID(ctx, formID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errf(FormNotFound, "form %d not found", formID)
		}
		return nil, err
	}

	questions, err := e.store.Questions(ctx, formID)
	if err != nil {
		return nil, err
	}
	answers, err := e.store.Answers(ctx, formID)
	if err != nil {
		return nil, err
	}

	values := make(map[int][]string, len(questions))
	for _, a := range answers {
		values[a.QuestionID] = append(values[a.QuestionID], a.Value)
	}

	summaries := make([]Summary, len(questions))
	for i, q := range questions {
		summaries[i] = summarize(q, values[q.ID])
	}
	return summaries, nil
}

func summarize(q model.Question, values []string) Summary {
	s := Summary{QuestionID: q.ID, Text: q.Text, Type: q.Type}

	switch q.Type {
	case model.SingleChoice:
		s.Distribution, s.TotalAnswers = choiceDistribution(q, values, false)
	case model.MultipleChoice:
		s.Distribution, s.TotalAnswers = choiceDistribution(q, values, true)
	case model.NumericChoice:
		s.Distribution, s.TotalAnswers = choiceDistribution(q, values, false)
		s.Histogram, s.Min, s.Mean, s.Max = numericChoiceStats(q, values)
	case model.Number:
		s.TotalAnswers = countNonEmpty(values)
		var n int
		s.Histogram, s.Min, s.Mean, s.Max, n = numberStats(values)
		s.Count = &n
	case model.Date, model.Time, model.DateTime:
		s.Frequencies, s.TotalAnswers = frequencyTable(values)
	default:
		n := countNonEmpty(values)
		s.TotalAnswers = n
		s.Count = &n
	}
	return s
}

// choiceDistribution counts answers per option, bucketing unmatched non-empty
// values into _other. For multi-select questions each comma-separated token
// is a selection, and percentages are computed over total selections rather
// than respondents, so they still sum to ~100%.
func choiceDistribution(q model.Question, values []string, multi bool) ([]Bucket, int) {
	cat := NewCatalog(q.Options)
	counts := make(map[int]int, len(q.Options))
	other := 0
	rows := 0
	selections := 0

	for _, v := range values {
		if v == "" {
			continue
		}
		rows++

		tokens := []string{v}
		if multi {
			tokens = strings.Split(v, ",")
		}
		for _, token := range tokens {
			selections++
			if o, ok := matchOption(cat, token); ok {
				counts[o.ID]++
			} else {
				other++
			}
		}
	}

	denominator := rows
	if multi {
		denominator = selections
	}

	buckets := make([]Bucket, 0, len(q.Options)+1)
	for _, o := range q.Options {
		buckets = append(buckets, Bucket{
			OptionID:   o.ID,
			Text:       o.Text,
			Count:      counts[o.ID],
			Percentage: percentage(counts[o.ID], denominator),
		})
	}
	buckets = append(buckets, Bucket{
		Text:       OtherBucket,
		Count:      other,
		Percentage: percentage(other, denominator),
	})
	return buckets, rows
}

// matchOption resolves a stored value to an option by id, falling back to a
// literal text match for answers stored before options were converted to ids.
func matchOption(cat Catalog, value string) (model.Option, bool) {
	if id, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if o, ok := cat.ByID(id); ok {
			return o, true
		}
	}
	return cat.ByText(value)
}

// numericChoiceStats maps stored option ids back to their numeric values and
// derives the histogram and basic statistics from them.
func numericChoiceStats(q model.Question, values []string) ([]NumericBucket, *float64, *float64, *float64) {
	cat := NewCatalog(q.Options)
	var nums []float64
	for _, v := range values {
		o, ok := matchOption(cat, v)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(o.Text), 64)
		if err != nil {
			continue
		}
		nums = append(nums, f)
	}
	hist, min, mean, max, _ := stats(nums)
	return hist, min, mean, max
}

// numberStats handles the legacy free-numeric type: parse every answer as a
// float, silently skipping unparsable ones.
func numberStats(values []string) ([]NumericBucket, *float64, *float64, *float64, int) {
	var nums []float64
	for _, v := range values {
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		nums = append(nums, f)
	}
	return stats(nums)
}

func stats(nums []float64) ([]NumericBucket, *float64, *float64, *float64, int) {
	if len(nums) == 0 {
		return nil, nil, nil, nil, 0
	}

	min, max, sum := nums[0], nums[0], 0.0
	freq := make(map[float64]int, len(nums))
	for _, f := range nums {
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
		sum += f
		freq[f]++
	}
	mean := round4(sum / float64(len(nums)))

	hist := make([]NumericBucket, 0, len(freq))
	for v, n := range freq {
		hist = append(hist, NumericBucket{Value: v, Count: n})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Value < hist[j].Value })

	return hist, &min, &mean, &max, len(nums)
}

// frequencyTable keys counts by the raw stored string, sorted
// lexicographically, which is chronological for ISO dates.
func frequencyTable(values []string) ([]ValueBucket, int) {
	freq := make(map[string]int)
	total := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		freq[v]++
		total++
	}

	table := make([]ValueBucket, 0, len(freq))
	for v, n := range freq {
		table = append(table, ValueBucket{Value: v, Count: n})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Value < table[j].Value })
	return table, total
}

func countNonEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) * 100 / float64(total))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
