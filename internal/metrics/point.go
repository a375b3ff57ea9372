package metrics

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Point is one telemetry measurement.
type Point struct {
	Series string
	Values map[string]any
	Tags   map[string]string
}

var (
	seriesEscaper = strings.NewReplacer(",", `\,`, " ", `\ `)
	tagEscaper    = strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)
	stringEscaper = strings.NewReplacer(`"`, `\"`, `\`, `\\`)
)

// Line renders the point as "series[,tag=value...] field=value[,...]".
// Tags and fields are sorted by key.
func (p Point) Line() string {
	var b strings.Builder
	b.WriteString(seriesEscaper.Replace(p.Series))

	for _, k := range sortedKeys(p.Tags) {
		v := p.Tags[k]
		if v == "" {
			continue
		}
		b.WriteByte(',')
		b.WriteString(tagEscaper.Replace(k))
		b.WriteByte('=')
		b.WriteString(tagEscaper.Replace(v))
	}

	fields := make([]string, 0, len(p.Values))
	for _, k := range sortedKeys(p.Values) {
		fields = append(fields, tagEscaper.Replace(k)+"="+formatValue(p.Values[k]))
	}
	b.WriteByte(' ')
	b.WriteString(strings.Join(fields, ","))

	return b.String()
}

// Encode joins the lines of points with newlines. Points without field
// values have no valid line and are skipped.
func Encode(points []Point) []byte {
	var buf bytes.Buffer
	for _, p := range points {
		if len(p.Values) == 0 {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(p.Line())
	}
	return buf.Bytes()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case string:
		return `"` + stringEscaper.Replace(x) + `"`
	default:
		return `"` + stringEscaper.Replace(fmt.Sprint(x)) + `"`
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
