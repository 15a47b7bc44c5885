package importer

import (
	"bytes"
	"encoding/csv"
)

const TemplateFilename = "product-import-template.csv"

var templateHeader = []string{
	"Product Handle", "Product Title", "Product Subtitle", "Product Description",
	"Product Status", "Product Thumbnail", "Product Weight", "Product Material",
	"Product Origin Country", "Product Category Handle", "Product Tag 1",
	"Variant Title", "Variant Sku", "Variant Barcode", "Variant Manage Inventory",
	"Variant Allow Backorder", "Variant Price EUR", "Variant Option 1 Name",
	"Variant Option 1 Value", "Product Image 1 Url",
}

var templateExample = []string{
	"t-shirt", "T-Shirt", "Cotton crew neck", "A plain cotton t-shirt.",
	"draft", "https://example.com/images/t-shirt.png", "200", "cotton",
	"DE", "apparel", "summer",
	"S / Black", "SHIRT-S-BLACK", "4006381333931", "true",
	"false", "19.99", "Size",
	"S", "https://example.com/images/t-shirt-front.png",
}

// Template renders the product import template: the header row the backend expects
// plus one example product.
func Template() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(templateHeader); err != nil {
		return nil, err
	}
	if err := w.Write(templateExample); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
