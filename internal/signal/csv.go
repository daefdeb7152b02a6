package signal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV reads "time,u" rows into a grid and an aligned input. A first row
// that does not parse as numbers is taken as a header.
func ReadCSV(r io.Reader) (Grid, Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	var g Grid
	var u Input
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("input csv line %d: expected time,u", i+1)
		}
		t, errT := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		v, errV := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if errT != nil || errV != nil {
			if i == 0 {
				continue
			}
			return nil, nil, fmt.Errorf("input csv line %d: %q,%q is not numeric", i+1, rec[0], rec[1])
		}
		g = append(g, t)
		u = append(u, v)
	}

	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	return g, u, nil
}
