package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
)

// NeverDelivered is the delivery date code the source uses for "no date".
const NeverDelivered = "29991212"

var salesOrderItemColumns = NewLookup(map[string]string{
	"salesorderid":   "sales_order_id",
	"salesorderitem": "sales_order_item",
	"productid":      "product_id",
	"noteid":         "note_id",
	"grossamount":    "gross_price",
	"netamount":      "net_price",
	"taxamount":      "tax_price",
	"itematpstatus":  "item_at_p_status",
	"quantity":       "qty",
	"quantityunit":   "qty_unit",
	"deliverydate":   "dt_delivery",
})

var salesOrderItemText = []string{"product_id", "currency", "id_sale_line"}

var SalesOrderItems = Entity{
	Name: "sales_order_items",
	Key:  []string{"sales_order_id", "sales_order_item"},
	Steps: []Step{
		LowerHeaders(),
		Rename(salesOrderItemColumns),
		Derive("id_sale_line", []string{"sales_order_id", "sales_order_item"}, saleLineID),
		Dedupe("id_sale_line"),
		Drop("note_id", "item_at_p_status", "qty_unit", "opitempos"),
		Strip(salesOrderItemText...),
		ParseDatesWithSentinel(NeverDelivered, "dt_delivery"),
		RoundMoney("gross_price", "net_price", "tax_price"),
		Derive("unit_gross_price", []string{"gross_price", "qty"}, unitPrice("gross_price")),
		Derive("unit_net_price", []string{"net_price", "qty"}, unitPrice("net_price")),
		Derive("unit_tax_price", []string{"tax_price", "qty"}, unitPrice("tax_price")),
		InferTypes(salesOrderItemText...),
	},
}

func saleLineID(r models.Record) (interface{}, error) {
	return utils.ToString(r["sales_order_id"]) + "-" + utils.ToString(r["sales_order_item"]), nil
}

// ErrZeroQuantity is returned when a per-unit price would divide by zero.
var ErrZeroQuantity = errors.New("quantity is zero")

// unitPrice returns round(total / qty, 2) for the given total column.
func unitPrice(total string) func(models.Record) (interface{}, error) {
	return func(r models.Record) (interface{}, error) {
		if utils.IsMissing(r[total]) || utils.IsMissing(r["qty"]) {
			return nil, nil
		}
		amount, err := utils.ConvertToDecimal(r[total])
		if err != nil {
			return nil, err
		}
		qty, err := utils.ConvertToDecimal(r["qty"])
		if err != nil {
			return nil, err
		}
		if qty.IsZero() {
			return nil, fmt.Errorf("%s: %w", total, ErrZeroQuantity)
		}
		return amount.Div(qty).Round(2), nil
	}
}

var salesOrderColumns = NewLookup(map[string]string{
	"salesorderid":     "sales_order_id",
	"createdby":        "created_by_id",
	"createdat":        "dt_created_at",
	"changedby":        "changed_by_id",
	"changedat":        "dt_changed_at",
	"fiscvariant":      "fiscal_variant",
	"fiscalyearperiod": "fiscal_year_period",
	"noteid":           "note_id",
	"partnerid":        "partner_id",
	"salesorg":         "sales_org",
	"grossamount":      "gross_price",
	"netamount":        "net_price",
	"taxamount":        "tax_price",
	"lifecyclestatus":  "life_cycle_status",
	"billingstatus":    "billing_status",
	"deliverystatus":   "delivery_status",
})

var salesOrderText = []string{
	"fiscal_variant",
	"sales_org",
	"currency",
	"life_cycle_status",
	"billing_status",
	"delivery_status",
}

var SalesOrders = Entity{
	Name: "sales_orders",
	Key:  []string{"sales_order_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(salesOrderColumns),
		Dedupe("sales_order_id"),
		ParseDates("dt_created_at", "dt_changed_at"),
		Derive("fiscal_year", []string{"fiscal_year_period"}, fiscalPart(true)),
		Derive("fiscal_month", []string{"fiscal_year_period"}, fiscalPart(false)),
		Strip(salesOrderText...),
		Translate("sales_org", Regions),
		Translate("life_cycle_status", LifeCycleStatus),
		Translate("billing_status", BillingStatus),
		Translate("delivery_status", DeliveryStatus),
		RoundMoney("gross_price", "net_price", "tax_price"),
		Drop("fiscal_year_period", "fiscal_variant", "note_id"),
		InferTypes(salesOrderText...),
	},
}

// SplitFiscalPeriod splits a packed period code into its year (first four
// digits) and month (last two digits).
func SplitFiscalPeriod(code string) (year, month int64, err error) {
	s := strings.TrimSuffix(strings.TrimSpace(code), ".0")
	if len(s) < 6 {
		return 0, 0, fmt.Errorf("fiscal period %q: want at least 6 digits", code)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("fiscal period %q: not numeric", code)
		}
	}
	year, _ = strconv.ParseInt(s[:4], 10, 64)
	month, _ = strconv.ParseInt(s[len(s)-2:], 10, 64)
	return year, month, nil
}

func fiscalPart(wantYear bool) func(models.Record) (interface{}, error) {
	return func(r models.Record) (interface{}, error) {
		v := r["fiscal_year_period"]
		if utils.IsMissing(v) {
			return nil, nil
		}
		year, month, err := SplitFiscalPeriod(utils.ToString(v))
		if err != nil {
			return nil, err
		}
		if wantYear {
			return year, nil
		}
		return month, nil
	}
}
