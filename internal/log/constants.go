package log

const (
	KeyAppName       = "app"
	KeyTag           = "tag"
	KeyProcess       = "process"
	KeyConfig        = "config"
	KeyRequestID     = "requestId"
	KeyRequestMethod = "requestMethod"
	KeyRequestURL    = "requestURL"
	KeyStatusCode    = "statusCode"

	KeyProductID   = "productId"
	KeyVariantID   = "variantId"
	KeyQuantity    = "quantity"
	KeyStockLimit  = "stockLimit"
	KeyCartItems   = "cartItems"
	KeyCouponCode  = "couponCode"
	KeyOrderID     = "orderId"
	KeySubtotal    = "subtotal"
	KeyTotal       = "total"
	KeyPoints      = "points"
	KeyStep        = "checkoutStep"
	KeyUserID      = "userId"
	KeyEmail       = "email"
	KeyNotifyLevel = "notificationLevel"
)
