package amazon

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/spreadsheet"
)

// DecodeDocument decrypts (when encryption details are present) and
// decompresses (when the document says GZIP) a downloaded payload.
func DecodeDocument(doc *Document, payload []byte) ([]byte, error) {
	data := payload
	if enc := doc.EncryptionDetails; enc != nil && enc.Key != "" {
		key, err := base64.StdEncoding.DecodeString(enc.Key)
		if err != nil {
			return nil, fmt.Errorf("decode key: %w", err)
		}
		iv, err := base64.StdEncoding.DecodeString(enc.InitializationVector)
		if err != nil {
			return nil, fmt.Errorf("decode iv: %w", err)
		}
		if data, err = decryptCBC(key, iv, data); err != nil {
			return nil, err
		}
	}
	if strings.EqualFold(doc.CompressionAlgorithm, "GZIP") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gunzip document: %w", err)
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("gunzip document: %w", err)
		}
	}
	return data, nil
}

// decryptCBC reverses AES-CBC with PKCS7 padding.
func decryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("aes iv: want %d bytes, got %d", aes.BlockSize, len(iv))
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrNotEncrypted
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		return nil, ErrBadPadding
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			return nil, ErrBadPadding
		}
	}
	return out[:len(out)-pad], nil
}

// ParseReport reads a decoded document. Tab-separated files become one row
// per line keyed by the header; JSON sales and traffic documents are
// flattened to one row per child ASIN.
func ParseReport(data []byte) ([]normalize.RawRow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		return parseJSONReport(trimmed)
	}
	sheet, err := spreadsheet.ParseDelimited(trimmed, '\t')
	if err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return sheet.Records(), nil
}

type salesAndTrafficDocument struct {
	ReportSpecification struct {
		DataStartTime  string   `json:"dataStartTime"`
		MarketplaceIDs []string `json:"marketplaceIds"`
	} `json:"reportSpecification"`
	SalesAndTrafficByAsin []struct {
		Date        string `json:"date"`
		ParentAsin  string `json:"parentAsin"`
		ChildAsin   string `json:"childAsin"`
		SalesByAsin struct {
			UnitsOrdered        float64 `json:"unitsOrdered"`
			OrderedProductSales struct {
				Amount float64 `json:"amount"`
			} `json:"orderedProductSales"`
		} `json:"salesByAsin"`
		TrafficByAsin struct {
			Sessions         float64 `json:"sessions"`
			PageViews        float64 `json:"pageViews"`
			BuyBoxPercentage float64 `json:"buyBoxPercentage"`
		} `json:"trafficByAsin"`
	} `json:"salesAndTrafficByAsin"`
}

func parseJSONReport(data []byte) ([]normalize.RawRow, error) {
	var doc salesAndTrafficDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	spec := doc.ReportSpecification
	marketplace := ""
	if len(spec.MarketplaceIDs) > 0 {
		marketplace = spec.MarketplaceIDs[0]
	}

	rows := make([]normalize.RawRow, 0, len(doc.SalesAndTrafficByAsin))
	for _, item := range doc.SalesAndTrafficByAsin {
		date := item.Date
		if date == "" {
			date = spec.DataStartTime
		}
		asin := item.ChildAsin
		if asin == "" {
			asin = item.ParentAsin
		}
		r := normalize.NewRawRow(8)
		r.Set("marketplaceId", marketplace)
		r.Set("asin", asin)
		r.Set("date", normalize.Date(date))
		r.Set("sessions", item.TrafficByAsin.Sessions)
		r.Set("pageViews", item.TrafficByAsin.PageViews)
		r.Set("unitsOrdered", item.SalesByAsin.UnitsOrdered)
		r.Set("orderedProductSales", item.SalesByAsin.OrderedProductSales.Amount)
		r.Set("buyBoxPercentage", item.TrafficByAsin.BuyBoxPercentage)
		rows = append(rows, r)
	}
	return rows, nil
}
