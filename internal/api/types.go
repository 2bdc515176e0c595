package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Album describes an album in a transport-friendly format.
type Album struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Price          int64  `json:"price"`
	State          string `json:"state"`
	CustodyAddress string `json:"custodyAddress"`
	Buyer          string `json:"buyer,omitempty"`
	PaidAmount     int64  `json:"paidAmount,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
	PaidAt         string `json:"paidAt,omitempty"`
	DeliveredAt    string `json:"deliveredAt,omitempty"`
}

// StateChange is one committed album transition.
type StateChange struct {
	Sequence       uint64 `json:"seq"`
	ItemID         int64  `json:"itemId"`
	State          string `json:"state"`
	CustodyAddress string `json:"custodyAddress"`
	Title          string `json:"title,omitempty"`
	Account        string `json:"account,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
	At             string `json:"ts,omitempty"`
}

// Account reports the balance held at an address.
type Account struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// TransferRequest is the body of POST /api/transfers.
type TransferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// AlbumListResponse wraps a collection of albums.
type AlbumListResponse struct {
	Albums []Album `json:"albums"`
}

// AlbumResponse wraps a single album.
type AlbumResponse struct {
	Album Album `json:"album"`
}

// EventsResponse carries a page of state changes and the cursor to resume from.
type EventsResponse struct {
	Events []StateChange `json:"events"`
	Next   uint64        `json:"next"`
}

// StatsResponse provides album counts keyed by state.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ErrorResponse is the body of every non-2xx HTTP reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"databasePath"`
	LockFilePath  string         `json:"lockFilePath"`
	APIBind       string         `json:"apiBind"`
	Admin         string         `json:"admin"`
	PaymentPolicy string         `json:"paymentPolicy"`
	Counts        map[string]int `json:"counts"`
}
