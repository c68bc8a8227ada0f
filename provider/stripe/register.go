package stripe

import "github.com/mstgnz/stripeconn/provider"

// Register Stripe connection with the connection registry
func init() {
	provider.Register("stripe", NewProvider)
}
