package ipc

import "albumtracker/internal/api"

// Album mirrors the HTTP API album DTO for internal IPC callers.
type Album = api.Album

// StateChange mirrors the HTTP API event DTO.
type StateChange = api.StateChange

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	DatabasePath  string         `json:"database_path"`
	LockPath      string         `json:"lock_path"`
	APIBind       string         `json:"api_bind"`
	Admin         string         `json:"admin"`
	PaymentPolicy string         `json:"payment_policy"`
	Counts        map[string]int `json:"counts"`
}

// AlbumCreateRequest lists a new album. Caller is the acting account.
type AlbumCreateRequest struct {
	Caller string `json:"caller"`
	Price  int64  `json:"price"`
	Title  string `json:"title"`
}

// AlbumResponse carries a single album.
type AlbumResponse struct {
	Album Album `json:"album"`
}

// AlbumPayRequest submits a payment against an album id.
type AlbumPayRequest struct {
	Payer  string `json:"payer"`
	ID     int64  `json:"id"`
	Amount int64  `json:"amount"`
}

// TransferRequest sends value to a custody address.
type TransferRequest struct {
	Payer  string `json:"payer"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// AlbumDeliverRequest triggers delivery of a paid album.
type AlbumDeliverRequest struct {
	Caller string `json:"caller"`
	ID     int64  `json:"id"`
}

// AlbumDescribeRequest fetches a single album by id.
type AlbumDescribeRequest struct {
	ID int64 `json:"id"`
}

// AlbumListRequest filters albums by state.
type AlbumListRequest struct {
	States []string `json:"states"`
}

// AlbumListResponse contains albums ordered by id.
type AlbumListResponse struct {
	Albums []Album `json:"albums"`
}

// BalanceRequest asks for the balance at an address.
type BalanceRequest struct {
	Address string `json:"address"`
}

// BalanceResponse reports an account balance.
type BalanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// EventsRequest pages through state changes. Follow waits up to
// WaitMillis for the next change when none is available.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse contains a page of changes and the cursor to resume from.
type EventsResponse struct {
	Events []StateChange `json:"events"`
	Next   uint64        `json:"next"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse describes notification test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
