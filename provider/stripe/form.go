package stripe

import (
	"github.com/stripe/stripe-go/v82/form"
)

// FormField is one key of an application/x-www-form-urlencoded body. A key
// with several values is emitted once per value, a key with none as "key=".
type FormField struct {
	Key    string
	Values []string
}

// Field builds a single-valued form field
func Field(key, value string) FormField {
	return FormField{Key: key, Values: []string{value}}
}

// EncodeForm percent-encodes fields into a form body, keeping the order in
// which the fields and their values are given.
func EncodeForm(fields ...FormField) string {
	values := &form.Values{}
	for _, f := range fields {
		if len(f.Values) == 0 {
			values.Add(f.Key, "")
			continue
		}
		for _, v := range f.Values {
			values.Add(f.Key, v)
		}
	}
	return values.Encode()
}
