package alpha

// Client talks to the old backend.
//
// Deprecated: use beta.Client.
type Client struct{}

func NewClient() *Client { return &Client{} }

// Close releases the client.
//
// Deprecated: clients no longer hold resources.
func (c *Client) Close() {}
