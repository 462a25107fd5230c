package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// RefreshFields is the fixed number of fields after the REFRESH tag.
const RefreshFields = 7

// Refresh is a full view snapshot for one seat. Hand holds only the receiving seat's cards;
// every seat, including the receiver, appears in HandSizes, Names and Scores.
type Refresh struct {
	SeatID    int
	Hand      []string
	Top       string
	HandSizes []int
	Names     []string
	Scores    []int
	Reversed  bool
}

// Message encodes the snapshot as
// REFRESH|seat|hand,...|top|size,...|name,...|score,...|reversed
func (r Refresh) Message() Message {
	names := make([]string, len(r.Names))
	for i, n := range r.Names {
		names[i] = Sanitize(n)
	}
	return New(TagRefresh,
		strconv.Itoa(r.SeatID),
		strings.Join(r.Hand, ListSep),
		r.Top,
		joinInts(r.HandSizes),
		strings.Join(names, ListSep),
		joinInts(r.Scores),
		strconv.FormatBool(r.Reversed),
	)
}

func ParseRefresh(m Message) (Refresh, error) {
	if m.Tag != TagRefresh {
		return Refresh{}, fmt.Errorf("%w: expected %s, got %s", ErrBadField, TagRefresh, m.Tag)
	}
	if len(m.Fields) != RefreshFields {
		return Refresh{}, fmt.Errorf("%w: REFRESH has %d", ErrFieldCount, len(m.Fields))
	}
	var (
		r   Refresh
		err error
	)
	if r.SeatID, err = m.Seat(); err != nil {
		return Refresh{}, err
	}
	r.Hand = splitList(m.Fields[1])
	r.Top = m.Fields[2]
	if r.HandSizes, err = splitInts(m.Fields[3]); err != nil {
		return Refresh{}, err
	}
	r.Names = splitList(m.Fields[4])
	if r.Scores, err = splitInts(m.Fields[5]); err != nil {
		return Refresh{}, err
	}
	if r.Reversed, err = strconv.ParseBool(m.Fields[6]); err != nil {
		return Refresh{}, fmt.Errorf("%w: direction %q", ErrBadField, m.Fields[6])
	}
	if len(r.Names) != len(r.HandSizes) || len(r.Scores) != len(r.HandSizes) {
		return Refresh{}, fmt.Errorf("%w: seat lists disagree", ErrBadField)
	}
	return r, nil
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ListSep)
}

func splitList(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, ListSep)
}

func splitInts(field string) ([]int, error) {
	parts := splitList(field)
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadField, p)
		}
		out[i] = v
	}
	return out, nil
}
