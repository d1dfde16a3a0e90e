package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/formlab/formlab/model"
	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// datetime layouts accepted on input, fractional seconds and UTC offset
// optional. Canonical storage truncates to whole seconds.
var dateTimeInputLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
}

// NormalizeAnswer maps one submitted raw answer (string, number or list, as
// decoded from JSON) to the canonical stored string, or fails with a typed
// error. Dispatch is a single switch over the question type; legacy and
// unknown types deliberately fall back to raw-string coercion.
func NormalizeAnswer(q model.Question, raw any) (string, error) {
	switch q.Type {
	case model.SingleChoice:
		return normalizeSingleChoice(q, raw)
	case model.MultipleChoice:
		return normalizeMultipleChoice(q, raw)
	case model.NumericChoice:
		return normalizeNumericChoice(q, raw)
	case model.ShortText, model.LongText:
		return coerceString(raw), nil
	case model.Date:
		return normalizeDate(q, raw)
	case model.DateTime:
		return normalizeDateTime(q, raw)
	case model.Number, model.Time:
		return coerceString(raw), nil
	default:
		return coerceString(raw), nil
	}
}

func normalizeSingleChoice(q model.Question, raw any) (string, error) {
	cat := NewCatalog(q.Options)
	if cat.Empty() {
		return "", errf(NoOptionsDefined, "question %q has no options", q.Text)
	}

	value := coerceString(raw)
	o, ok := resolveOption(cat, value)
	if !ok {
		return "", errf(InvalidOption, "invalid option %q for question %q", value, q.Text)
	}
	return strconv.Itoa(o.ID), nil
}

func normalizeMultipleChoice(q model.Question, raw any) (string, error) {
	cat := NewCatalog(q.Options)
	if cat.Empty() {
		return "", errf(NoOptionsDefined, "question %q has no options", q.Text)
	}

	values := answerValues(raw)
	if q.MaxChoices > 0 && len(values) > q.MaxChoices {
		return "", errf(TooManyChoices, "too many choices for question %q: %d > %d",
			q.Text, len(values), q.MaxChoices)
	}

	// duplicates are kept, output order follows input order
	ids := make([]string, len(values))
	for i, value := range values {
		o, ok := resolveOption(cat, value)
		if !ok {
			return "", errf(InvalidOption, "invalid option %q for question %q", value, q.Text)
		}
		ids[i] = strconv.Itoa(o.ID)
	}
	return strings.Join(ids, ","), nil
}

func normalizeNumericChoice(q model.Question, raw any) (string, error) {
	cat := NewCatalog(q.Options)
	if cat.Empty() {
		return "", errf(NoOptionsDefined, "question %q has no options", q.Text)
	}

	value := coerceString(raw)
	if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
		if o, ok := cat.ByNumericValue(d); ok {
			return strconv.Itoa(o.ID), nil
		}
	}
	if id, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if o, ok := cat.ByID(id); ok {
			return strconv.Itoa(o.ID), nil
		}
	}
	return "", errf(OutOfScale, "value %q is out of scale for question %q", value, q.Text)
}

func normalizeDate(q model.Question, raw any) (string, error) {
	value := coerceString(raw)
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", errf(InvalidDate, "invalid date %q for question %q, expected YYYY-MM-DD", value, q.Text)
	}
	return t.Format(dateLayout), nil
}

func normalizeDateTime(q model.Question, raw any) (string, error) {
	value := coerceString(raw)
	for i, layout := range dateTimeInputLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		t = t.Truncate(time.Second)
		if i == 0 {
			return t.Format(time.RFC3339), nil
		}
		return t.Format(dateTimeLayout), nil
	}
	return "", errf(InvalidDateTime, "invalid datetime %q for question %q", value, q.Text)
}

// resolveOption accepts an option id or the exact option text. The text match
// is case-sensitive on purpose, to stay compatible with stored answers.
func resolveOption(cat Catalog, value string) (model.Option, bool) {
	if id, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if o, ok := cat.ByID(id); ok {
			return o, true
		}
	}
	return cat.ByText(value)
}

// answerValues splits a multi-select answer into its elements: either a list
// of values or one comma-separated string.
func answerValues(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		values := make([]string, len(v))
		for i, e := range v {
			values[i] = coerceString(e)
		}
		return values
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	default:
		return []string{coerceString(raw)}
	}
}

// coerceString turns a scalar into its string form. JSON numbers arrive as
// float64 and are rendered without artifacts; null becomes the empty string.
func coerceString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return FormatNumber(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		return strings.Join(answerValues(v), ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return fmt.Sprint(v)
	}
}

// isEmptyAnswer reports whether a submitted value counts as absent for the
// required-field check. A non-empty list counts as present.
func isEmptyAnswer(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
