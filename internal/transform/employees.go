package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BartekS5/sap-etl/pkg/models"
	"github.com/BartekS5/sap-etl/pkg/utils"
)

var employeeColumns = NewLookup(map[string]string{
	"employeeid":         "employee_id",
	"name_first":         "first_name",
	"name_middle":        "middle_name",
	"name_last":          "last_name",
	"name_initials":      "initials",
	"phonenumber":        "phone_number",
	"emailaddress":       "email_address",
	"loginname":          "login_name",
	"addressid":          "address_id",
	"validity_startdate": "dt_start_validity",
	"validity_enddate":   "dt_end_validity",
})

var employeeText = []string{
	"first_name",
	"middle_name",
	"last_name",
	"sex",
	"language",
	"email_address",
	"login_name",
}

// noMiddleName marks an employee without a middle name.
const noMiddleName = "-"

var Employees = Entity{
	Name: "employees",
	Key:  []string{"employee_id"},
	Steps: []Step{
		LowerHeaders(),
		Rename(employeeColumns),
		Dedupe("employee_id"),
		Strip(employeeText...),
		FillMissing("middle_name", noMiddleName),
		Derive("full_name", []string{"first_name", "middle_name", "last_name"}, fullName),
		Derive("name_initials", []string{"first_name", "middle_name", "last_name"}, nameInitials),
		Translate("sex", Genders),
		RenameOne("sex", "gender"),
		Drop(
			"dt_start_validity",
			"dt_end_validity",
			"phone_number",
			"initials",
			"middle_name",
			"language",
			"unnamed: 13",
			"unnamed: 14",
			"unnamed: 15",
			"unnamed: 16",
			"unnamed: 17",
			"unnamed: 18",
		),
		InferTypes("first_name", "last_name", "full_name", "name_initials", "gender", "email_address", "login_name"),
	},
}

func namePart(r models.Record, col string) string {
	if utils.IsMissing(r[col]) {
		return ""
	}
	return utils.ToString(r[col])
}

// fullName renders "First M. Last", or "First Last" without a middle name.
func fullName(r models.Record) (interface{}, error) {
	var parts []string
	if first := namePart(r, "first_name"); first != "" {
		parts = append(parts, first)
	}
	if middle := namePart(r, "middle_name"); middle != "" && middle != noMiddleName {
		parts = append(parts, middle+".")
	}
	if last := namePart(r, "last_name"); last != "" {
		parts = append(parts, last)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return strings.Join(parts, " "), nil
}

// nameInitials renders "F.M.L." from the upper-cased first letters.
func nameInitials(r models.Record) (interface{}, error) {
	var b strings.Builder
	for _, col := range []string{"first_name", "middle_name", "last_name"} {
		s := namePart(r, col)
		if s == "" || (col == "middle_name" && s == noMiddleName) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(s)
		b.WriteRune(unicode.ToUpper(first))
		b.WriteByte('.')
	}
	if b.Len() == 0 {
		return nil, nil
	}
	return b.String(), nil
}
