package transform

import (
	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
)

var productCategoryColumns = NewLookup(map[string]string{
	"prodcategoryid": "product_category_id",
	"createdby":      "created_by_id",
	"createdat":      "dt_created_at",
})

var ProductCategories = Entity{
	Name: "product_categories",
	Key:  []string{"product_category_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(productCategoryColumns),
		Dedupe("product_category_id"),
		ParseDates("dt_created_at"),
		Strip("product_category_id"),
		InferTypes("product_category_id"),
	},
}

var productCategoryTextColumns = NewLookup(map[string]string{
	"prodcategoryid": "product_category_id",
	"short_descr":    "category_short_description",
	"medium_descr":   "medium_description",
	"long_descr":     "long_description",
})

var ProductCategoryText = Entity{
	Name: "product_category_text",
	Key:  []string{"product_category_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(productCategoryTextColumns),
		Dedupe("product_category_id"),
		Drop("medium_description", "language", "long_description"),
		Strip("product_category_id", "category_short_description"),
		InferTypes("product_category_id", "category_short_description"),
	},
}

var productTextColumns = NewLookup(map[string]string{
	"productid":    "product_id",
	"short_descr":  "short_description",
	"medium_descr": "medium_description",
	"long_descr":   "long_description",
})

var ProductTexts = Entity{
	Name: "product_texts",
	Key:  []string{"product_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(productTextColumns),
		Dedupe("product_id"),
		Derive("product_description", []string{"short_description", "medium_description"}, productDescription),
		Drop("language", "short_description", "medium_description", "long_description"),
		Strip("product_id", "product_description"),
		InferTypes("product_id", "product_description"),
	},
}

// productDescription prefers the short text and falls back to the medium
// one when the short text is missing.
func productDescription(r models.Record) (interface{}, error) {
	if !utils.IsMissing(r["short_description"]) {
		return r["short_description"], nil
	}
	if !utils.IsMissing(r["medium_description"]) {
		return r["medium_description"], nil
	}
	return nil, nil
}

var productColumns = NewLookup(map[string]string{
	"productid":          "product_id",
	"typecode":           "type_code",
	"prodcategoryid":     "product_category_id",
	"createdby":          "created_by_id",
	"createdat":          "dt_created_at",
	"changedby":          "changed_by_id",
	"changedat":          "dt_changed_at",
	"supplier_partnerid": "supplier_partner_id",
	"taxtariffcode":      "tax_tariff_code",
	"quantityunit":       "qty_unit",
	"weightmeasure":      "weight_measure",
	"weightunit":         "unit",
	"dimensionunit":      "dimension_unit",
	"price":              "unit_price",
	"productpicurl":      "product_pi_curl",
})

var productText = []string{"product_id", "type_code", "product_category_id", "qty_unit", "unit", "currency"}

var Products = Entity{
	Name: "products",
	Key:  []string{"product_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(productColumns),
		Dedupe("product_id"),
		Strip(productText...),
		ParseDates("dt_created_at", "dt_changed_at"),
		RoundMoney("unit_price"),
		Drop(
			"width",
			"depth",
			"height",
			"dimension_unit",
			"qty_unit",
			"tax_tariff_code",
			"type_code",
			"product_pi_curl",
		),
		InferTypes(productText...),
	},
}
