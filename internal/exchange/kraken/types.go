package kraken

// AssetPair is one entry of the AssetPairs result, keyed by pair name.
type AssetPair struct {
	Altname string `json:"altname"`
	WSName  string `json:"wsname"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
	Status  string `json:"status"`
}

// altNames maps Kraken asset names onto instrument codes.
var altNames = map[string]string{
	"XXBT": "BTC",
	"XBT":  "BTC",
	"XETH": "ETH",
	"XLTC": "LTC",
	"ZUSD": "USD",
	"ZEUR": "EUR",
}

// assetCode returns the instrument code of a Kraken asset name.
func assetCode(asset string) string {
	if code, ok := altNames[asset]; ok {
		return code
	}
	return asset
}
