package transform

var addressColumns = NewLookup(map[string]string{
	"postalcode":         "postal_code",
	"addresstype":        "address_type",
	"validity_startdate": "dt_start_validity",
	"validity_enddate":   "dt_end_validity",
})

var addressText = []string{"city", "postal_code", "street", "country", "region"}

var Addresses = Entity{
	Name: "addresses",
	Key:  []string{"address_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(addressColumns),
		RepairLatin1("city"),
		Dedupe("address_id"),
		Drop("dt_start_validity", "address_type", "dt_end_validity"),
		Strip(addressText...),
		Integer("building", 0),
		Translate("country", Countries),
		Translate("region", Regions),
		InferTypes(addressText...),
	},
}

var businessPartnerColumns = NewLookup(map[string]string{
	"partnerid":    "partner_id",
	"partnerrole":  "partner_role",
	"emailaddress": "email_address",
	"phonenumber":  "phone_number",
	"faxnumber":    "fax_number",
	"webaddress":   "web_address",
	"addressid":    "address_id",
	"companyname":  "company_name",
	"legalform":    "legal_form",
	"createdby":    "created_by_id",
	"createdat":    "dt_created_at",
	"changedby":    "changed_by_id",
	"changedat":    "dt_changed_at",
})

var BusinessPartners = Entity{
	Name: "business_partners",
	Key:  []string{"partner_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(businessPartnerColumns),
		Dedupe("partner_id"),
		Drop("partner_role", "phone_number", "fax_number", "legal_form", "web_address"),
		ParseDates("dt_created_at", "dt_changed_at"),
		InferTypes("email_address", "company_name", "currency"),
	},
}
