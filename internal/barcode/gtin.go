package barcode

import "strings"

const gtin14Digits = 14

// ToGTIN14 widens a UPC/EAN code to the 14-digit GTIN form FoodData Central
// stores in gtinUpc.
func ToGTIN14(code string) string {
	switch len(code) {
	case 12:
		return "00" + code
	case 13:
		return "0" + code
	case 8:
		return "000000" + code
	case 14:
		return code
	}
	if len(code) > gtin14Digits {
		return code
	}
	return strings.Repeat("0", gtin14Digits-len(code)) + code
}

// CheckDigitValid verifies the GS1 mod-10 check digit. Codes that were
// zero-padded keep a valid check digit because leading zeros weigh nothing.
func CheckDigitValid(code string) bool {
	if len(code) < 2 {
		return false
	}

	sum := 0
	// weights alternate 3,1 starting from the digit left of the check digit
	weight := 3
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}

	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}

// TrimLeadingZeros returns code without leading zeros, keeping at least one digit
func TrimLeadingZeros(code string) string {
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" && code != "" {
		return "0"
	}
	return trimmed
}
