package engine

import (
	"strings"

	"github.com/formlab/formlab/model"
	"github.com/shopspring/decimal"
)

// Catalog is the ordered set of valid options for one choice question.
type Catalog struct {
	options []model.Option
}

func NewCatalog(options []model.Option) Catalog {
	return Catalog{options: options}
}

func (c Catalog) Empty() bool {
	return len(c.options) == 0
}

func (c Catalog) Options() []model.Option {
	return c.options
}

func (c Catalog) ByID(id int) (model.Option, bool) {
	for _, o := range c.options {
		if o.ID == id {
			return o, true
		}
	}
	return model.Option{}, false
}

// ByText matches option text exactly, case included.
func (c Catalog) ByText(text string) (model.Option, bool) {
	for _, o := range c.options {
		if o.Text == text {
			return o, true
		}
	}
	return model.Option{}, false
}

// ByFoldedText matches option text after trimming and case folding.
func (c Catalog) ByFoldedText(text string) (model.Option, bool) {
	text = strings.TrimSpace(text)
	for _, o := range c.options {
		if strings.EqualFold(strings.TrimSpace(o.Text), text) {
			return o, true
		}
	}
	return model.Option{}, false
}

// ByNumericValue matches an option whose text parses to exactly v. Option
// texts of numeric_choice questions are validated numeric at creation time,
// so a parse failure here just means no match.
func (c Catalog) ByNumericValue(v decimal.Decimal) (model.Option, bool) {
	for _, o := range c.options {
		d, err := decimal.NewFromString(strings.TrimSpace(o.Text))
		if err != nil {
			continue
		}
		if d.Equal(v) {
			return o, true
		}
	}
	return model.Option{}, false
}

// ValidateNumericOptions enforces the numeric_choice creation invariant: at
// least one option, every option text numeric.
func ValidateNumericOptions(texts []string) error {
	if len(texts) == 0 {
		return errf(NoOptionsDefined, "numeric_choice requires at least one option")
	}
	for _, t := range texts {
		if _, err := decimal.NewFromString(strings.TrimSpace(t)); err != nil {
			return errf(NonNumericOption, "numeric_choice options must be numeric: %q", t)
		}
	}
	return nil
}
