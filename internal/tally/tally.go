// Package tally aggregates a session's raw selection rows into the two
// read-side views the product shows: a per-participant breakdown and a
// shop-facing merged receipt.  Everything here is a pure function over
// the row slice; nothing is merged at write time.
package tally

// Line is one raw selection row carrying the menu item's name and unit
// price as captured by the read-time join.
type Line struct {
	SelectionID uint64 `json:"selection_id"`
	Participant string `json:"participant"`
	ItemName    string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    uint32 `json:"quantity"`
}

// LineTotal returns the line's price: unit price times quantity.
func (l Line) LineTotal() int64 { return l.UnitPrice * int64(l.Quantity) }

// ParticipantGroup is one participant's rows in submission order.
// Grouping is by the exact participant string; names differing only in
// case or whitespace belong to different groups.
type ParticipantGroup struct {
	Participant string `json:"participant"`
	Lines       []Line `json:"lines"`
	Quantity    uint32 `json:"quantity"`
	Amount      int64  `json:"amount"`
}

// MergedLine is one line of the shop-facing receipt.  Rows are merged
// across participants by (name, unit price) rather than menu item id:
// two item rows that read identically on paper collapse into one line,
// and a price edit after some selections were made yields two lines.
type MergedLine struct {
	ItemName  string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  uint32 `json:"quantity"`
	Amount    int64  `json:"amount"`
}

// Result bundles every aggregated view of one session's selections.
type Result struct {
	Participants  []ParticipantGroup `json:"participants"`
	Merged        []MergedLine       `json:"merged"`
	TotalQuantity uint32             `json:"total_quantity"`
	TotalAmount   int64              `json:"total_amount"`
}

type mergeKey struct {
	name  string
	price int64
}

// Aggregate builds the per-participant breakdown, the merged receipt
// and the grand totals from the raw rows.  Input order is preserved:
// participants appear in order of their first row, as do their lines
// and the merged receipt lines.  The merged receipt's summed amounts
// always equal the grand totals.
func Aggregate(lines []Line) Result {
	res := Result{
		Participants: []ParticipantGroup{},
		Merged:       []MergedLine{},
	}
	partIdx := make(map[string]int)
	mergeIdx := make(map[mergeKey]int)

	for _, l := range lines {
		// Per-participant view, keyed byte-for-byte on the typed name.
		i, ok := partIdx[l.Participant]
		if !ok {
			i = len(res.Participants)
			partIdx[l.Participant] = i
			res.Participants = append(res.Participants, ParticipantGroup{Participant: l.Participant})
		}
		g := &res.Participants[i]
		g.Lines = append(g.Lines, l)
		g.Quantity += l.Quantity
		g.Amount += l.LineTotal()

		// Shop-facing receipt, keyed on (name, unit price).
		k := mergeKey{name: l.ItemName, price: l.UnitPrice}
		j, ok := mergeIdx[k]
		if !ok {
			j = len(res.Merged)
			mergeIdx[k] = j
			res.Merged = append(res.Merged, MergedLine{ItemName: l.ItemName, UnitPrice: l.UnitPrice})
		}
		m := &res.Merged[j]
		m.Quantity += l.Quantity
		m.Amount += l.LineTotal()

		res.TotalQuantity += l.Quantity
		res.TotalAmount += l.LineTotal()
	}
	return res
}
