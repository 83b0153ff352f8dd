package orders

import (
	"regexp"
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	newSheetStamp = "2006-01-02-15-04-05"
	newSheetPref  = "newfile_"
	sheetExt      = ".csv"
	maxVendorLen  = 80
)

var (
	unsafeVendorRe = regexp.MustCompile(`[\\/:*?"<>|]`)
	namedSheetRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}__(.+)\.csv$`)
	sheetDateRe    = regexp.MustCompile(`^(?:newfile_)?(\d{4}-\d{2}-\d{2})`)
)

// SafeVendor replaces path-hostile characters and caps the length at 80 runes.
func SafeVendor(v string) string {
	s := unsafeVendorRe.ReplaceAllString(strings.TrimSpace(v), "_")
	if r := []rune(s); len(r) > maxVendorLen {
		s = string(r[:maxVendorLen])
	}
	return s
}

// SheetName is the name of a vendor's sheet for a date: "2025-01-02__vendor.csv".
func SheetName(date, vendor string) string {
	return date + "__" + SafeVendor(vendor) + sheetExt
}

// NewSheetName names a sheet created before its vendor is known.
func NewSheetName(now time.Time) string {
	return newSheetPref + now.Format(newSheetStamp) + sheetExt
}

// VendorFromName recovers the vendor from a named sheet; "" for new or foreign names.
func VendorFromName(name string) string {
	if name == "" || strings.HasPrefix(name, newSheetPref) {
		return ""
	}
	m := namedSheetRe.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// DateFromName returns the date a sheet name starts with, if any.
func DateFromName(name string) (string, bool) {
	m := sheetDateRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse(dateLayout, m[1]); err != nil {
		return "", false
	}
	return m[1], true
}

func month(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
