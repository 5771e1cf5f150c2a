package normalize

import (
	"regexp"
	"strconv"
)

var rePincode = regexp.MustCompile(`\b([1-9]\d{5})\b`)

// ExtractPincode pulls the first 6-digit postal code out of an address.
// Returns "" when none is present.
func ExtractPincode(address string) string {
	return rePincode.FindString(address)
}

// statePincodePrefixes maps canonical states to their 2-digit postal zone
// prefixes. India Post allocates pincode ranges per circle, so a code whose
// prefix falls outside its claimed state is a strong mismatch signal.
var statePincodePrefixes = map[string][]int{
	"NEW DELHI":                   {11},
	"HARYANA":                     {12, 13},
	"PUNJAB":                      {14, 15, 16},
	"CHANDIGARH":                  {16},
	"HIMACHAL PRADESH":            {17},
	"JAMMU AND KASHMIR":           {18, 19},
	"LADAKH":                      {19},
	"UTTAR PRADESH":               {20, 21, 22, 23, 24, 25, 26, 27, 28},
	"UTTARAKHAND":                 {24, 26},
	"RAJASTHAN":                   {30, 31, 32, 33, 34},
	"GUJARAT":                     {36, 37, 38, 39},
	"DAMAN AND DIU":               {39},
	"DADRA AND NAGAR HAVELI":      {39},
	"MAHARASHTRA":                 {40, 41, 42, 43, 44},
	"GOA":                         {40},
	"MADHYA PRADESH":              {45, 46, 47, 48},
	"CHHATTISGARH":                {49},
	"ANDHRA PRADESH":              {51, 52, 53},
	"TELANGANA":                   {50},
	"KARNATAKA":                   {56, 57, 58, 59},
	"TAMIL NADU":                  {60, 61, 62, 63, 64},
	"PUDUCHERRY":                  {60},
	"KERALA":                      {67, 68, 69},
	"WEST BENGAL":                 {70, 71, 72, 73, 74},
	"ANDAMAN AND NICOBAR ISLANDS": {74},
	"ODISHA":                      {75, 76, 77},
	"ASSAM":                       {78},
	"ARUNACHAL PRADESH":           {79},
	"MANIPUR":                     {79},
	"MEGHALAYA":                   {79},
	"MIZORAM":                     {79},
	"NAGALAND":                    {79},
	"TRIPURA":                     {79},
	"SIKKIM":                      {73},
	"BIHAR":                       {80, 81, 82, 84, 85},
	"JHARKHAND":                   {81, 82, 83},
}

// PincodeInState reports whether a 6-digit code falls inside the postal zone
// of a canonical state. Unknown states and malformed codes report false.
func PincodeInState(pincode, state string) bool {
	if len(pincode) != 6 {
		return false
	}
	prefix, err := strconv.Atoi(pincode[:2])
	if err != nil {
		return false
	}
	for _, p := range statePincodePrefixes[state] {
		if p == prefix {
			return true
		}
	}
	return false
}
