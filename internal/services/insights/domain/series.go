package domain

import (
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// GroupPart is one resolved dimension of a grouped series
type GroupPart struct {
	Group    string `json:"group"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value"`
}

func (p GroupPart) String() string {
	if p.Operator != "" {
		return p.Group + " " + p.Operator + " " + p.Value
	}
	return p.Group + "=" + p.Value
}

// GroupKey identifies a series, the zero key is the default series
type GroupKey []GroupPart

// IsDefault reports whether k is the default series key
func (k GroupKey) IsDefault() bool { return len(k) == 0 }

func (k GroupKey) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ID is an unambiguous encoding of k, display strings can collide when values contain ", " or "="
func (k GroupKey) ID() string {
	var b strings.Builder
	for _, p := range k {
		for _, f := range [...]string{p.Group, p.Operator, p.Value} {
			b.WriteString(strconv.Itoa(len(f)))
			b.WriteByte(':')
			b.WriteString(f)
		}
	}
	return b.String()
}

// Series is one metric for one group over the bucket grid
type Series struct {
	Name   string   `json:"name"`
	Metric string   `json:"metric"`
	Group  GroupKey `json:"group,omitempty"`
	Values []int64  `json:"values"`
}

// SeriesName is the output column for metric under key
func SeriesName(metric string, key GroupKey) string {
	if key.IsDefault() {
		return metric
	}
	return metric + " (" + key.String() + ")"
}

// SeriesResult is a gap filled grid, every series has len(Dates) values
type SeriesResult struct {
	Dates  []time.Time
	Series []Series
}

// Len is the number of buckets
func (r SeriesResult) Len() int { return len(r.Dates) }

// Find returns the series with the given output name
func (r SeriesResult) Find(name string) (Series, bool) {
	for _, s := range r.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// MarshalJSON renders [{date, "<series>": n, ...}] with keys in series order
func (r SeriesResult) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteArrayStart()
	for i, d := range r.Dates {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		stream.WriteObjectField("date")
		stream.WriteString(d.Format(time.RFC3339))
		for _, s := range r.Series {
			stream.WriteMore()
			stream.WriteObjectField(s.Name)
			stream.WriteInt64(s.Values[i])
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}
