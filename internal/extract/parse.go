// Package extract talks to the menu-extraction provider and turns its
// loosely-structured replies into validated menu candidates.  All
// "trust but verify" handling of the untyped external payload lives in
// this package; callers only ever see parsed candidates or a sentinel
// error with a retry affordance.
package extract

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoMenuExtracted is returned when the provider's reply is not
// valid JSON, is not an array, or contains no usable entries.  It is a
// recoverable condition: the UI offers a retry, never a crash.
var ErrNoMenuExtracted = errors.New("no menu extracted")

// MenuCandidate is one entry proposed by extraction or free-text
// parsing, before the shop owner confirms and saves it.
type MenuCandidate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
}

// ParseCandidates validates the provider's raw reply.  The reply is
// expected, but not guaranteed, to be a JSON array of {name,
// description, price} objects, optionally wrapped in a fenced code
// block.  Entries without a name are dropped; untyped prices are
// coerced and default to 0.
func ParseCandidates(raw string) ([]MenuCandidate, error) {
	body := stripCodeFence(raw)
	if !gjson.Valid(body) {
		return nil, ErrNoMenuExtracted
	}
	parsed := gjson.Parse(body)
	if !parsed.IsArray() {
		return nil, ErrNoMenuExtracted
	}
	var out []MenuCandidate
	parsed.ForEach(func(_, entry gjson.Result) bool {
		name := strings.TrimSpace(entry.Get("name").String())
		if name == "" {
			return true // skip nameless entries, keep iterating
		}
		out = append(out, MenuCandidate{
			Name:        name,
			Description: strings.TrimSpace(entry.Get("description").String()),
			Price:       coercePrice(entry.Get("price")),
		})
		return true
	})
	if len(out) == 0 {
		return nil, ErrNoMenuExtracted
	}
	return out, nil
}

// stripCodeFence removes a leading/trailing markdown code fence such as
// ```json ... ``` if present.  Providers often wrap JSON this way even
// when asked not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "[{") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// coercePrice converts the provider's untyped price field into whole
// currency units, defaulting to 0 whenever the value is absent or
// unparseable.  String prices may carry thousands separators or a
// currency suffix.
func coercePrice(v gjson.Result) int64 {
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 {
			return 0
		}
		return int64(v.Num)
	case gjson.String:
		cleaned := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == '.' {
				return r
			}
			return -1
		}, v.Str)
		if cleaned == "" {
			return 0
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || f < 0 {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

// ParseFreeText parses manually pasted menu text, one item per line, in
// any of the accepted shapes: "name - description - price",
// "name price" or "name description price".  Lines without a trailing
// numeric price get price 0.  An input with no usable lines yields
// ErrNoMenuExtracted.
func ParseFreeText(text string) ([]MenuCandidate, error) {
	var out []MenuCandidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c, ok := parseLine(line); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMenuExtracted
	}
	return out, nil
}

func parseLine(line string) (MenuCandidate, bool) {
	// Dash-separated form first: "name - description - price".
	if parts := strings.Split(line, " - "); len(parts) >= 2 {
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return MenuCandidate{}, false
		}
		last := strings.TrimSpace(parts[len(parts)-1])
		if price, ok := parsePriceToken(last); ok {
			desc := strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " - "))
			return MenuCandidate{Name: name, Description: desc, Price: price}, true
		}
		return MenuCandidate{Name: name, Description: strings.TrimSpace(strings.Join(parts[1:], " - "))}, true
	}

	// Whitespace-separated: the last numeric token is the price, the
	// first token the name, anything between is the description.
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return MenuCandidate{}, false
	}
	if len(fields) == 1 {
		return MenuCandidate{Name: fields[0]}, true
	}
	last := fields[len(fields)-1]
	if price, ok := parsePriceToken(last); ok {
		name := fields[0]
		desc := strings.Join(fields[1:len(fields)-1], " ")
		return MenuCandidate{Name: name, Description: desc, Price: price}, true
	}
	// No trailing price: the whole line is the item name.
	return MenuCandidate{Name: line}, true
}

func parsePriceToken(tok string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		if r == ',' || r == '.' {
			return -1
		}
		return r // keep letters so "spicy" does not become a price
	}, tok)
	cleaned = strings.TrimSuffix(cleaned, "원")
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
