// Package feedback stores post-order satisfaction ratings.
package feedback

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxCommentLength is the longest accepted comment, in characters.
const MaxCommentLength = 500

// Feedback is one customer's rating of a completed order. It is linked to
// the order only through OrderID and OrderNumber.
type Feedback struct {
	ID             string
	OrderID        string
	OrderNumber    string
	CustomerName   string
	CustomerPhone  string
	Rating         int
	FoodQuality    int
	ServiceQuality int
	DeliveryTime   int
	Comments       string
	Date           time.Time
	WouldRecommend bool
}

// Input is the data a customer submits. The repository assigns ID and Date.
type Input struct {
	OrderID        string
	OrderNumber    string
	CustomerName   string
	CustomerPhone  string
	Rating         int
	FoodQuality    int
	ServiceQuality int
	DeliveryTime   int
	Comments       string
	WouldRecommend bool
}

// ValidationError reports an invalid feedback field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every rating is within 1..5 and the comment is not
// longer than MaxCommentLength.
func Validate(in Input) error {
	if in.OrderNumber == "" {
		return &ValidationError{Field: "orderNumber", Message: "order number is required"}
	}
	for _, r := range []struct {
		field string
		value int
	}{
		{"rating", in.Rating},
		{"foodQuality", in.FoodQuality},
		{"serviceQuality", in.ServiceQuality},
		{"deliveryTime", in.DeliveryTime},
	} {
		if r.value < 1 || r.value > 5 {
			return &ValidationError{Field: r.field, Message: "must be between 1 and 5"}
		}
	}
	if utf8.RuneCountInString(in.Comments) > MaxCommentLength {
		return &ValidationError{Field: "comments", Message: fmt.Sprintf("must be at most %d characters", MaxCommentLength)}
	}
	return nil
}

type record struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	CustomerName   string    `json:"customerName"`
	CustomerPhone  string    `json:"customerPhone"`
	Rating         int       `json:"rating"`
	FoodQuality    int       `json:"foodQuality"`
	ServiceQuality int       `json:"serviceQuality"`
	DeliveryTime   int       `json:"deliveryTime"`
	Comments       string    `json:"comments"`
	Date           time.Time `json:"date"`
	WouldRecommend bool      `json:"wouldRecommend"`
}

// Marshal encodes feedback as a JSON array.
func Marshal(list []Feedback) ([]byte, error) {
	recs := make([]record, len(list))
	for i, f := range list {
		recs[i] = record(f)
	}
	return json.Marshal(recs)
}

// Unmarshal decodes a JSON array of feedback. Empty input yields nothing.
func Unmarshal(data []byte) ([]Feedback, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	list := make([]Feedback, len(recs))
	for i, r := range recs {
		list[i] = Feedback(r)
	}
	return list, nil
}
