package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return decodeError(c.client.Call(serviceName+"."+method, req, resp))
}

// Start requests the daemon to start serving.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.call("Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop serving.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlbumCreate lists a new album acting as caller.
func (c *Client) AlbumCreate(caller string, price int64, title string) (*AlbumResponse, error) {
	var resp AlbumResponse
	req := AlbumCreateRequest{Caller: caller, Price: price, Title: title}
	if err := c.call("AlbumCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlbumPay submits a payment for an album id.
func (c *Client) AlbumPay(payer string, id, amount int64) (*AlbumResponse, error) {
	var resp AlbumResponse
	req := AlbumPayRequest{Payer: payer, ID: id, Amount: amount}
	if err := c.call("AlbumPay", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Transfer sends value to a custody address.
func (c *Client) Transfer(payer, to string, amount int64) (*AlbumResponse, error) {
	var resp AlbumResponse
	req := TransferRequest{Payer: payer, To: to, Amount: amount}
	if err := c.call("Transfer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlbumDeliver triggers delivery of a paid album.
func (c *Client) AlbumDeliver(caller string, id int64) (*AlbumResponse, error) {
	var resp AlbumResponse
	req := AlbumDeliverRequest{Caller: caller, ID: id}
	if err := c.call("AlbumDeliver", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlbumDescribe returns details for a single album.
func (c *Client) AlbumDescribe(id int64) (*AlbumResponse, error) {
	var resp AlbumResponse
	if err := c.call("AlbumDescribe", AlbumDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AlbumList returns albums optionally filtered by states.
func (c *Client) AlbumList(states []string) (*AlbumListResponse, error) {
	var resp AlbumListResponse
	if err := c.call("AlbumList", AlbumListRequest{States: states}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Balance returns the value held at an address.
func (c *Client) Balance(address string) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.call("Balance", BalanceRequest{Address: address}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events pages through recorded state changes.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.call("Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
