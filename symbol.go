package sidekick

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// isinRegex checks for the basic structure: 2 letters, 9 alphanumeric, 1 digit.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// ValidateISIN checks if a string is a valid ISIN (International Securities
// Identification Number), including its check digit.
func ValidateISIN(isin string) error {
	// 1. Length validation
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}

	// 2. Format validation
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}

	// 3. Convert letters to numbers for check digit calculation
	var numericStr strings.Builder
	for _, char := range isin[:11] {
		if char >= 'A' && char <= 'Z' {
			numericStr.WriteString(strconv.Itoa(int(char - 'A' + 10)))
		} else {
			numericStr.WriteRune(char)
		}
	}

	// 4. Apply a variation of the Luhn algorithm
	sum := 0
	isSecond := true
	digits := numericStr.String()
	for i := len(digits) - 1; i >= 0; i-- {
		digit, _ := strconv.Atoi(string(digits[i]))
		if isSecond {
			digit *= 2
		}
		sum += (digit / 10) + (digit % 10)
		isSecond = !isSecond
	}

	// 5. Validate the check digit
	expectedCheckDigit := (10 - (sum % 10)) % 10
	actualCheckDigit, _ := strconv.Atoi(string(isin[11]))
	if expectedCheckDigit != actualCheckDigit {
		return fmt.Errorf("invalid check digit: expected %d, got %d", expectedCheckDigit, actualCheckDigit)
	}
	return nil
}

// AssetClass is the broad class of an instrument.
type AssetClass string

// Asset classes known by the remote ledger.
const (
	AssetClassNone        AssetClass = ""
	Cash                  AssetClass = "CASH"
	Commodity             AssetClass = "COMMODITY"
	Equity                AssetClass = "EQUITY"
	FixedIncome           AssetClass = "FIXED_INCOME"
	RealEstate            AssetClass = "REAL_ESTATE"
	AlternativeInvestment AssetClass = "ALTERNATIVE_INVESTMENT"
	Liquidity             AssetClass = "LIQUIDITY"
)

var assetClasses = []AssetClass{Cash, Commodity, Equity, FixedIncome, RealEstate, AlternativeInvestment, Liquidity}

// ParseAssetClass parses an asset class, case-insensitively. The empty string is AssetClassNone.
func ParseAssetClass(s string) (AssetClass, error) {
	if strings.TrimSpace(s) == "" {
		return AssetClassNone, nil
	}
	c := AssetClass(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(assetClasses, c) {
		return AssetClassNone, fmt.Errorf("unknown asset class %q", s)
	}
	return c, nil
}

// AssetSubClass is the detailed class of an instrument.
type AssetSubClass string

// Asset sub-classes known by the remote ledger.
const (
	AssetSubClassNone AssetSubClass = ""
	Bond              AssetSubClass = "BOND"
	CryptoCurrency    AssetSubClass = "CRYPTOCURRENCY"
	ETF               AssetSubClass = "ETF"
	MutualFund        AssetSubClass = "MUTUALFUND"
	PreciousMetal     AssetSubClass = "PRECIOUS_METAL"
	PrivateEquity     AssetSubClass = "PRIVATE_EQUITY"
	Stock             AssetSubClass = "STOCK"
	Collectible       AssetSubClass = "COLLECTIBLE"
	Commodities       AssetSubClass = "COMMODITY"
)

var assetSubClasses = []AssetSubClass{Bond, CryptoCurrency, ETF, MutualFund, PreciousMetal, PrivateEquity, Stock, Collectible, Commodities}

// ParseAssetSubClass parses an asset sub-class, case-insensitively. The empty string is AssetSubClassNone.
func ParseAssetSubClass(s string) (AssetSubClass, error) {
	if strings.TrimSpace(s) == "" {
		return AssetSubClassNone, nil
	}
	c := AssetSubClass(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(assetSubClasses, c) {
		return AssetSubClassNone, fmt.Errorf("unknown asset sub-class %q", s)
	}
	return c, nil
}

// DataSourceManual is the data source of symbols created locally.
const DataSourceManual = "MANUAL"

// Mappings are the identifiers of a symbol in third party data sources.
type Mappings struct {
	TrackInsight string
}

// SymbolProfile identifies a tradable instrument.
type SymbolProfile struct {
	Symbol          string
	ISIN            string
	Name            string
	Currency        Currency
	AssetClass      AssetClass
	AssetSubClass   AssetSubClass
	DataSource      string
	Identifiers     []string // alternate identifiers known to designate this symbol
	Mappings        Mappings
	ActivitiesCount int
	Comment         string
}

// HasIdentifier reports whether id designates p.
func (p SymbolProfile) HasIdentifier(id string) bool {
	return id != "" && (p.Symbol == id || p.ISIN == id || slices.Contains(p.Identifiers, id))
}

// IsManual reports whether p was created locally.
func (p SymbolProfile) IsManual() bool { return p.DataSource == DataSourceManual }

// AddIdentifier returns a copy of p knowing id as an alternate identifier.
// The comment is rewritten so the remote ledger persists the identifiers.
func (p SymbolProfile) AddIdentifier(id string) SymbolProfile {
	if id == "" || slices.Contains(p.Identifiers, id) {
		return p
	}
	p.Identifiers = append(slices.Clone(p.Identifiers), id)
	p.Comment = identifiersComment(p.Identifiers)
	return p
}

var knownIdentifiersRE = regexp.MustCompile(`Known Identifiers: \[(.*?)\]`)

func identifiersComment(ids []string) string {
	return "Known Identifiers: [" + strings.Join(ids, ",") + "]"
}

// ParseIdentifiers extracts the alternate identifiers persisted in a profile comment.
func ParseIdentifiers(comment string) []string {
	m := knownIdentifiersRE.FindStringSubmatch(comment)
	if m == nil || m[1] == "" {
		return nil
	}
	return strings.Split(m[1], ",")
}
