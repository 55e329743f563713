package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"checkout.read","checkout.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"web-storefront": {ID: "web-storefront", Secret: "storefront-secret", Perms: []string{"checkout.read", "checkout.write", "seller.register"}, Enabled: true},
	"mobile-app":     {ID: "mobile-app", Secret: "mobile-secret", Perms: []string{"checkout.read", "checkout.write"}, Enabled: true},
	"svc-support":    {ID: "svc-support", Secret: "support-secret", Perms: []string{"checkout.read"}, Enabled: true},
}
