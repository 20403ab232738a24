package beta

// Client talks to the new backend.
type Client struct{}

func NewClient() *Client { return &Client{} }

// Close releases the client.
func (c *Client) Close() {}
