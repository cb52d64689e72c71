package clinics

import "strings"

// Clinic is a bookable hospital unit (poliklinik).
type Clinic struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog is the fixed set of units patients can book into.
// Order matches the booking form.
var Catalog = []Clinic{
	{Code: "umum", Name: "POLI UMUM"},
	{Code: "anak", Name: "POLI ANAK"},
	{Code: "kandungan", Name: "POLI KANDUNGAN"},
	{Code: "gigi", Name: "POLI GIGI"},
	{Code: "penyakit-dalam", Name: "POLI PENYAKIT DALAM"},
	{Code: "tht", Name: "POLI THT"},
	{Code: "mata", Name: "POLI MATA"},
	{Code: "jantung", Name: "POLI JANTUNG"},
	{Code: "igd", Name: "Unit IGD"},
	{Code: "mcu", Name: "Medical Check Up"},
}

// Valid reports whether name matches a catalog entry. Comparison ignores
// case and surrounding whitespace so submissions survive front-end casing.
func Valid(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range Catalog {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
