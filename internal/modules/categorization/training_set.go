package categorization

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/fintrack/internal/domain"
)

var defaultTrainingSet = []Example{
	{"Amazon Purchase", "Shopping"},
	{"Uber Ride", "Transport"},
	{"McDonald's", "Food & Dining"},
	{"Salary", "Income"},
	{"Rent Payment", "Housing"},
	{"Grocery Shopping", "Groceries"},
	{"Starbucks Coffee", "Food & Dining"},
	{"Car Repair", "Auto & Transport"},
	{"Gym Membership", "Health & Fitness"},
	{"Netflix Subscription", "Entertainment"},
	{"Walmart Shopping", "Shopping"},
	{"Electricity Bill", "Utilities"},
	{"Water Bill", "Utilities"},
	{"Gas Station", "Auto & Transport"},
	{"Movie Ticket", "Entertainment"},
	{"Flight Ticket", "Travel"},
	{"Hotel Booking", "Travel"},
	{"Train Ticket", "Travel"},
	{"Doctor Visit", "Healthcare"},
	{"Medicine Purchase", "Healthcare"},
	{"Insurance Payment", "Insurance"},
	{"Restaurant Dinner", "Food & Dining"},
	{"Fast Food", "Food & Dining"},
	{"Loan Payment", "Loans"},
	{"Gift Purchase", "Shopping"},
	{"Concert Ticket", "Entertainment"},
	{"Parking Fee", "Auto & Transport"},
	{"Online Course", "Education"},
	{"Spotify Subscription", "Entertainment"},
	{"Clothing Purchase", "Shopping"},
	{"Electronics Purchase", "Shopping"},
	{"Furniture Purchase", "Shopping"},
	{"Home Decor", "Home Improvement"},
	{"Books Purchase", "Education"},
	{"Pet Supplies", "Pets"},
	{"Charity Donation", "Charity"},
	{"Tax Payment", "Taxes"},
	{"Lottery Ticket", "Entertainment"},
	{"Home Cleaning Service", "Home Services"},
	{"Babysitting Service", "Childcare"},
}

// DefaultTrainingSet returns a copy of the built-in labelled examples.
func DefaultTrainingSet() []Example {
	return append([]Example(nil), defaultTrainingSet...)
}

// LoadTrainingSet reads a YAML list of {description, category} examples.
func LoadTrainingSet(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &domain.MissingInputError{Resource: path, Hint: "training set"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read training set: %w", err)
	}
	return ParseTrainingSet(data)
}

// ParseTrainingSet decodes YAML training examples, rejecting blank fields.
func ParseTrainingSet(data []byte) ([]Example, error) {
	var examples []Example
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, &domain.ParseError{Field: "training set", Err: err}
	}
	for i := range examples {
		examples[i].Description = strings.TrimSpace(examples[i].Description)
		examples[i].Category = strings.TrimSpace(examples[i].Category)
		if examples[i].Description == "" || examples[i].Category == "" {
			return nil, &domain.ParseError{Row: i + 1, Field: "training example", Value: examples[i].Description, Err: errors.New("description and category are required")}
		}
	}
	return examples, nil
}
