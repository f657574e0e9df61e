package vintf

// Property keys consulted during manifest resolution.
const (
	PropVendorSku   = "ro.boot.product.vendor.sku"
	PropHardwareSku = "ro.boot.product.hardware.sku"
)

// PropertyFetcher answers system property lookups.
type PropertyFetcher interface {
	// GetProperty returns the value of key, or defaultValue when unknown.
	GetProperty(key, defaultValue string) string
}

// PropertyFetcherFunc adapts a function to [PropertyFetcher].
type PropertyFetcherFunc func(key, defaultValue string) string

func (f PropertyFetcherFunc) GetProperty(key, defaultValue string) string {
	return f(key, defaultValue)
}
