package vintfcheck

import (
	"github.com/leodido/vintfcheck/vintf"
	"github.com/rs/zerolog"
)

// SkuPropertyFetcher answers the vendor and hardware SKU properties with
// fixed overrides and every other property with the caller's default.
// Overrides are returned verbatim, the empty string included.
type SkuPropertyFetcher struct {
	vendorSku   string
	hardwareSku string
	logger      zerolog.Logger
}

// NewSkuPropertyFetcher binds the two SKU overrides. Each resolution is
// logged at info level.
func NewSkuPropertyFetcher(vendorSku, hardwareSku string, logger zerolog.Logger) *SkuPropertyFetcher {
	return &SkuPropertyFetcher{
		vendorSku:   vendorSku,
		hardwareSku: hardwareSku,
		logger:      logger,
	}
}

func (p *SkuPropertyFetcher) GetProperty(key, defaultValue string) string {
	switch key {
	case vintf.PropVendorSku:
		p.logger.Info().Str("key", key).Str("value", p.vendorSku).Msg("property overridden")
		return p.vendorSku
	case vintf.PropHardwareSku:
		p.logger.Info().Str("key", key).Str("value", p.hardwareSku).Msg("property overridden")
		return p.hardwareSku
	}
	p.logger.Info().Str("key", key).Str("default", defaultValue).Msg("property missing, using default")
	return defaultValue
}

var _ vintf.PropertyFetcher = (*SkuPropertyFetcher)(nil)
