package dto

import (
	"encoding/json"
	"errors"
	"strings"
)

var errAmountNotNumeric = errors.New("amount must be a number or a numeric string")

// Amount is a money value as sent by clients: either a JSON number (150.5) or a
// string ("150.50"). The literal text is kept so no float rounding happens
// before it is parsed as a decimal.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errAmountNotNumeric
	}
	*a = Amount(n.String())
	return nil
}

func (a Amount) String() string {
	return string(a)
}
