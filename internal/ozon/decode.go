package ozon

import (
	"bytes"
	"encoding/json"

	"github.com/ignite/commerce-ingest/internal/normalize"
)

// idDimensions carry their value in the dimension id; the others in the name.
var idDimensions = map[string]bool{"sku": true, "offer_id": true}

// DecodeItem maps one analytics row onto the wide table for day den.
// metrics is the list the row was requested with, used for positional
// metric arrays. It returns false when the row has no sku, model or day.
func DecodeItem(item AnalyticsItem, den string, metrics []string) (normalize.OzonRow, bool) {
	row := normalize.OzonRow{"den": den}
	decodeDimensions(row, item.Dimensions)
	decodeMetrics(row, item.Metrics, metrics)
	if !row.Complete() {
		return nil, false
	}
	return row, true
}

func decodeDimensions(row normalize.OzonRow, dims []Dimension) {
	named := false
	for _, d := range dims {
		col, ok := normalize.OzonDimensionColumns[string(d.ID)]
		if !ok {
			continue
		}
		named = true
		v := d.Value
		if v == "" {
			v = d.Name
		}
		if v != "" {
			row[col] = string(v)
		}
	}
	if named {
		return
	}

	// Dimensions came back in request order as {id, name} pairs.
	for i, d := range dims {
		if i >= len(normalize.OzonDimensions) {
			break
		}
		dim := normalize.OzonDimensions[i]
		v := d.Name
		if idDimensions[dim] {
			v = d.ID
		}
		if v != "" {
			row[normalize.OzonDimensionColumns[dim]] = string(v)
		}
	}
	if _, ok := row["tovary"]; !ok && len(dims) > 0 && dims[0].Name != "" {
		row["tovary"] = string(dims[0].Name)
	}
}

func decodeMetrics(row normalize.OzonRow, raw json.RawMessage, requested []string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return
	}
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil || len(values) == 0 {
		return
	}

	if first := bytes.TrimSpace(values[0]); len(first) > 0 && first[0] == '{' {
		for _, v := range values {
			var m MetricValue
			if json.Unmarshal(v, &m) != nil {
				continue
			}
			if col, ok := normalize.OzonMetricColumn(m.ID); ok {
				row[col] = normalize.Number(m.Value)
			}
		}
		return
	}

	for i, metric := range requested {
		if i >= len(values) {
			break
		}
		col, ok := normalize.OzonMetricColumn(metric)
		if !ok {
			continue
		}
		var v any
		dec := json.NewDecoder(bytes.NewReader(values[i]))
		dec.UseNumber()
		if dec.Decode(&v) != nil {
			v = nil
		}
		row[col] = normalize.Number(v)
	}
}

// Enrich fills artikul from the product offer id and replaces model with the
// "Модель" attribute, or with the offer id when model only repeats the sku.
func Enrich(rows []normalize.OzonRow, info map[string]ProductInfo) {
	for _, r := range rows {
		p, ok := info[r.SKU()]
		if !ok {
			continue
		}
		if p.OfferID != "" && normalize.Text(r["artikul"]) == "" {
			r["artikul"] = p.OfferID
		}
		if m := p.ModelAttribute(); m != "" {
			r["model"] = m
		} else if p.OfferID != "" && (r.Model() == "" || r.Model() == r.SKU()) {
			r["model"] = p.OfferID
		}
		r.Complete()
	}
}
